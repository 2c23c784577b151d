package civil

import (
	"fmt"
	"time"
)

// Date is a single civil calendar day in a fixed IANA timezone.
// It is always derived from an instant sampled once per computation and
// never mutated afterwards.
type Date struct {
	Year  int
	Month time.Month
	Day   int

	loc *time.Location
}

// Today returns the civil day the given instant falls on in loc.
//
// The year/month/day fields are read from the instant converted into the
// zone, never by adding a raw UTC offset: around DST transitions an offset
// shift would land on the wrong day, field extraction cannot.
func Today(now time.Time, loc *time.Location) Date {
	local := now.In(loc)
	return Date{
		Year:  local.Year(),
		Month: local.Month(),
		Day:   local.Day(),
		loc:   loc,
	}
}

// Location returns the zone this date is anchored in.
func (d Date) Location() *time.Location {
	if d.loc == nil {
		return time.UTC
	}
	return d.loc
}

// midnight returns the civil midnight opening this date in its zone.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, d.Location())
}

// DayOfYear returns the 1-based day of year of d, counted in whole civil
// days from Jan 1 of d's year.
func (d Date) DayOfYear() int {
	return d.midnight().YearDay()
}

// WeekdayCode returns the three-letter weekday code ("Mon".."Sun") of d
// in its zone.
func (d Date) WeekdayCode() string {
	return d.midnight().Format("Mon")
}

// ISOWeek returns the ISO-8601 week number of d.
func (d Date) ISOWeek() int {
	_, week := d.midnight().ISOWeek()
	return week
}

// ISODate returns d as "YYYY-MM-DD", the key form used by assignment
// overrides.
func (d Date) ISODate() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return d.ISODate()
}
