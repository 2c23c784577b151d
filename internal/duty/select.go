// Package duty decides who is on duty for a given civil day.
package duty

import (
	"strings"

	"dutyboard/internal/civil"
	"dutyboard/internal/model"
)

// Overrides maps ISO date strings ("2024-03-04") to roster slugs.
// Unique keys; the last loaded document wins, there is no merging across
// load cycles.
type Overrides map[string]string

// Select picks the contact on duty for date, first match wins:
//
//  1. an exact-date override naming a slug present in the roster;
//  2. weekday rotation: contacts whose Days contain the date's weekday
//     code, picked by ISO week number so multiple same-weekday candidates
//     alternate across weeks without persisted state;
//  3. global fallback: roster[dayOfYear mod len(roster)].
//
// An empty roster returns (zero, false) and the caller must leave the
// last-rendered contact untouched.
func Select(roster []model.Contact, overrides Overrides, date civil.Date) (model.Contact, bool) {
	if len(roster) == 0 {
		return model.Contact{}, false
	}

	if slug, ok := overrides[date.ISODate()]; ok {
		if c, found := bySlug(roster, slug); found {
			return c, true
		}
		// Override names an unknown slug: fall through to rotation.
	}

	code := date.WeekdayCode()
	matches := onWeekday(roster, code)
	if len(matches) > 0 {
		return matches[date.ISOWeek()%len(matches)], true
	}

	return roster[date.DayOfYear()%len(roster)], true
}

func bySlug(roster []model.Contact, slug string) (model.Contact, bool) {
	for _, c := range roster {
		if c.Slug == slug {
			return c, true
		}
	}
	return model.Contact{}, false
}

func onWeekday(roster []model.Contact, code string) []model.Contact {
	var out []model.Contact
	for _, c := range roster {
		for _, d := range c.Days {
			if strings.EqualFold(strings.TrimSpace(d), code) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
