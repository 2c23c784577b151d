// Package board holds the displayed state of the signage board.
//
// The Store is the single shared write target: refresh tasks commit panel
// views into it (gated by their refresh coordinators) and the web layer
// serves read-only snapshots to the browser page. The core never reads
// display state back to make decisions.
package board

import (
	"sync"
	"time"

	"dutyboard/internal/model"
)

// Slot names one of the two alternating slide buffers.
type Slot int

const (
	SlotA Slot = 0
	SlotB Slot = 1
)

func (s Slot) String() string {
	if s == SlotA {
		return "A"
	}
	return "B"
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	return 1 - s
}

// Surface is the display collaborator refresh tasks write into.
type Surface interface {
	// SetContact commits the contact panel. It is not called when no
	// contact could be chosen, so the last-rendered contact stays up.
	SetContact(c model.Contact)

	// SetWeather commits the weather panel, including the explicit
	// unavailable placeholder state.
	SetWeather(w model.WeatherView)

	// SetWarnings commits the warnings panel; an empty view hides it.
	SetWarnings(w model.WarningsView)

	// SetSlide writes asset into slot and makes it the visible buffer.
	// animate selects a crossfade; the very first show is immediate.
	SetSlide(slot Slot, asset model.SlideAsset, animate bool)
}

// SlideState describes the two slide buffers. Exactly one slot is active
// (visible) at any instant; the other is the preload target. Seq increments
// on every flip so the polling frontend can detect transitions.
type SlideState struct {
	Active  Slot              `json:"active"`
	A       *model.SlideAsset `json:"a,omitempty"`
	B       *model.SlideAsset `json:"b,omitempty"`
	Animate bool              `json:"animate"`
	Seq     uint64            `json:"seq"`
}

// State is a point-in-time snapshot of the whole board.
type State struct {
	Contact   *model.Contact      `json:"contact,omitempty"`
	Weather   *model.WeatherView  `json:"weather,omitempty"`
	Warnings  *model.WarningsView `json:"warnings,omitempty"`
	Slides    SlideState          `json:"slides"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Store is the mutex-guarded Surface implementation backing the web API.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns an empty board.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetContact(c model.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Contact = &c
	s.state.UpdatedAt = time.Now()
}

func (s *Store) SetWeather(w model.WeatherView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Weather = &w
	s.state.UpdatedAt = time.Now()
}

func (s *Store) SetWarnings(w model.WarningsView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Warnings = &w
	s.state.UpdatedAt = time.Now()
}

func (s *Store) SetSlide(slot Slot, asset model.SlideAsset, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot == SlotA {
		s.state.Slides.A = &asset
	} else {
		s.state.Slides.B = &asset
	}
	s.state.Slides.Active = slot
	s.state.Slides.Animate = animate
	s.state.Slides.Seq++
	s.state.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the current board state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
