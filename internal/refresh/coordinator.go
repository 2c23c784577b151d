// Package refresh provides stale-response suppression for asynchronous
// panel refreshes.
//
// A refresh task calls Begin before its first suspension point and checks
// IsCurrent immediately before committing its result to displayed state.
// Newer generations supersede older ones regardless of completion order;
// a superseded task's result is discarded silently. Superseding is the
// expected, frequent case, not a failure.
package refresh

import "sync/atomic"

// Token identifies one refresh generation. Tokens are strictly increasing
// within a Coordinator; exactly one token is current at any instant.
type Token uint64

// Coordinator issues generation tokens for a single displayed resource.
// Each panel gets its own Coordinator; the zero value is ready to use.
type Coordinator struct {
	latest atomic.Uint64
}

// NewCoordinator returns a fresh coordinator with no generations issued.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Begin issues a new generation token strictly greater than any token
// issued before and makes it the current one. Any older in-flight
// generation is invalidated from this moment.
func (c *Coordinator) Begin() Token {
	return Token(c.latest.Add(1))
}

// IsCurrent reports whether tok is still the most recently issued token.
// Commit gates must call this immediately before the commit, not before
// the asynchronous work: currency can change during suspension.
func (c *Coordinator) IsCurrent(tok Token) bool {
	return uint64(tok) == c.latest.Load()
}
