// Package alerts retrieves weather warning advisories and normalizes their
// loosely shaped payloads into the warnings panel view.
package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"dutyboard/internal/model"
)

// maxRendered caps how many advisories the panel shows.
const maxRendered = 5

// areas tolerates both a plain string and an array of area names.
type areas string

func (a *areas) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = areas(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = areas(strings.Join(list, ", "))
		return nil
	}
	return fmt.Errorf("areas: unsupported shape")
}

// item is one advisory as delivered by the source.
type item struct {
	Severity string `json:"severity"`
	Headline string `json:"headline"`
	Event    string `json:"event"`
	Areas    areas  `json:"areas"`
	Starts   string `json:"starts"`
	Ends     string `json:"ends"`
}

// envelope is one warnings response object. Sources deliver either a
// single envelope or an array of them.
type envelope struct {
	Warnings    []item `json:"warnings"`
	MaxSeverity string `json:"maxSeverity"`
	Updated     string `json:"updated"`
}

// NormalizeSeverity maps a free-text severity onto yellow/amber/red by
// case-insensitive substring match, preferring the most severe keyword
// found. Anything present but unrecognized becomes yellow.
func NormalizeSeverity(raw string) model.Severity {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "red"):
		return model.SeverityRed
	case strings.Contains(lower, "amber"):
		return model.SeverityAmber
	default:
		return model.SeverityYellow
	}
}

// Parse decodes a warnings payload (object or array) into the panel view.
// When the payload is an array, the envelope with the most recent updated
// timestamp is used. At most five items are rendered, most severe first,
// source order preserved within equal severity.
func Parse(body []byte) (model.WarningsView, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return model.WarningsView{}, err
	}

	items := make([]model.Warning, 0, len(env.Warnings))
	for _, it := range env.Warnings {
		headline := it.Headline
		if headline == "" {
			headline = it.Event
		}
		if headline == "" && it.Severity == "" {
			continue
		}
		items = append(items, model.Warning{
			Severity: NormalizeSeverity(it.Severity),
			Headline: headline,
			Areas:    string(it.Areas),
			Starts:   it.Starts,
			Ends:     it.Ends,
		})
	}

	if len(items) == 0 {
		return model.WarningsView{}, nil
	}

	// Most severe first; stable keeps the source's order within a tier.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Severity.Rank() > items[j].Severity.Rank()
	})

	maxSev := items[0].Severity
	if env.MaxSeverity != "" {
		// The source's own overall severity wins when supplied.
		maxSev = NormalizeSeverity(env.MaxSeverity)
	}

	if len(items) > maxRendered {
		items = items[:maxRendered]
	}

	return model.WarningsView{Items: items, MaxSeverity: maxSev}, nil
}

func decodeEnvelope(body []byte) (envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return envelope{}, fmt.Errorf("warnings payload empty")
	}

	if trimmed[0] == '[' {
		var envs []envelope
		if err := json.Unmarshal(trimmed, &envs); err != nil {
			return envelope{}, fmt.Errorf("warnings array decode: %w", err)
		}
		if len(envs) == 0 {
			return envelope{}, nil
		}
		return mostRecent(envs), nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, fmt.Errorf("warnings decode: %w", err)
	}
	return env, nil
}

func mostRecent(envs []envelope) envelope {
	best := envs[0]
	bestAt := updatedAt(best)
	for _, e := range envs[1:] {
		if at := updatedAt(e); at.After(bestAt) {
			best = e
			bestAt = at
		}
	}
	return best
}

func updatedAt(e envelope) time.Time {
	if e.Updated == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, e.Updated); err == nil {
			return t
		}
	}
	return time.Time{}
}
