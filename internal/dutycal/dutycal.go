// Package dutycal reads an optional duty-override calendar feed: each
// VEVENT whose SUMMARY is a roster slug puts that contact on duty for the
// civil day(s) it covers. Weekly standing overrides are expressed with
// RRULE; EXDATE removes single occurrences.
package dutycal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"dutyboard/internal/civil"
	"dutyboard/internal/duty"
	"dutyboard/internal/fetch"
	appLog "dutyboard/internal/log"
)

// occurrence cap per event; a weekly rule inside a few-day window can
// never legitimately approach this.
const maxOccurrencesPerEvent = 500

// Feed fetches and expands the duty calendar.
type Feed struct {
	Fetcher *fetch.Fetcher
	Source  fetch.Source
	Zone    *time.Location
}

// Overrides returns date→slug overrides for civil days in [from, to].
func (f *Feed) Overrides(ctx context.Context, from, to civil.Date) (duty.Overrides, error) {
	res, err := f.Fetcher.FetchOne(ctx, f.Source)
	if err != nil {
		return nil, err
	}
	return ParseOverrides(res.Body, f.Zone, from, to)
}

// ParseOverrides expands an ICS payload into overrides for [from, to].
// Events that fail to parse are skipped, not fatal: one bad entry in a
// shared calendar must not take out the whole rotation.
func ParseOverrides(body []byte, zone *time.Location, from, to civil.Date) (duty.Overrides, error) {
	if len(body) == 0 {
		return nil, errors.New("empty calendar body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	fromKey := from.ISODate()
	toKey := to.ISODate()
	out := duty.Overrides{}

	for _, ve := range cal.Events() {
		slug := eventSlug(ve)
		if slug == "" {
			continue
		}

		for _, key := range eventDates(ve, zone, from, to) {
			// ISO date keys compare correctly as strings.
			if key < fromKey || key > toKey {
				continue
			}
			out[key] = slug
		}
	}

	return out, nil
}

// eventSlug reads the roster slug from SUMMARY.
func eventSlug(ve *ical.VEvent) string {
	p := ve.GetProperty(ical.ComponentPropertySummary)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

// eventDates resolves the civil-day keys an event covers inside the
// window, expanding RRULE recurrences when present.
func eventDates(ve *ical.VEvent, zone *time.Location, from, to civil.Date) []string {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil
	}
	allDay := isAllDay(ve)

	rawRRule := ""
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rawRRule = p.Value
	}

	if rawRRule == "" {
		return []string{dateKey(start, allDay, zone)}
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		uid := ""
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			uid = p.Value
		}
		appLog.Warn("duty calendar: unparseable RRULE, skipping event", "uid", uid, "err", err)
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	// Expand one day beyond each end of the window in the event's own
	// location, then filter by date key; this sidesteps zone-offset
	// boundary effects for all-day values.
	loc := start.Location()
	rangeStart := time.Date(from.Year, from.Month, from.Day, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	rangeEnd := time.Date(to.Year, to.Month, to.Day, 0, 0, 0, 0, loc).AddDate(0, 0, 2)

	occs := set.Between(rangeStart, rangeEnd, true)
	if len(occs) > maxOccurrencesPerEvent {
		occs = occs[:maxOccurrencesPerEvent]
	}

	keys := make([]string, 0, len(occs))
	for _, occ := range occs {
		keys = append(keys, dateKey(occ, allDay, zone))
	}
	return keys
}

// dateKey formats the civil-day key for an occurrence. All-day values are
// calendar dates already and keep their own location; timed values are
// converted into the display zone first.
func dateKey(t time.Time, allDay bool, zone *time.Location) string {
	if !allDay && zone != nil {
		t = t.In(zone)
	}
	return t.Format("2006-01-02")
}

// isAllDay detects VALUE=DATE starts, or date-only DTSTART values.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// exDates collects EXDATE values, tolerating comma-separated lists and
// the basic DATE / DATE-TIME / UTC forms.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
