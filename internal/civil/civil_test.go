package civil_test

import (
	"testing"
	"time"

	"dutyboard/internal/civil"
	. "github.com/smartystreets/goconvey/convey"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestToday(t *testing.T) {
	london := mustLoc(t, "Europe/London")

	Convey("Given instants around the London spring DST transition", t, func() {
		// Clocks go forward 2024-03-31 at 01:00 GMT -> 02:00 BST.
		Convey("Then each 24-hour period maps to exactly one civil day", func() {
			start := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
			seen := make(map[string]bool)
			var order []string
			for h := 0; h < 72; h++ {
				d := civil.Today(start.Add(time.Duration(h)*time.Hour), london)
				if !seen[d.ISODate()] {
					seen[d.ISODate()] = true
					order = append(order, d.ISODate())
				}
			}
			So(order, ShouldResemble, []string{
				"2024-03-30", "2024-03-31", "2024-04-01", "2024-04-02",
			})
		})

		Convey("Then an instant just before UK midnight stays on the prior day", func() {
			// 23:30 UTC on Mar 30 is 23:30 in London (still GMT).
			d := civil.Today(time.Date(2024, 3, 30, 23, 30, 0, 0, time.UTC), london)
			So(d.ISODate(), ShouldEqual, "2024-03-30")
		})

		Convey("Then a BST evening instant resolves via the local day, not UTC", func() {
			// 23:30 UTC on Jul 1 is 00:30 Jul 2 in London (BST).
			d := civil.Today(time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC), london)
			So(d.ISODate(), ShouldEqual, "2024-07-02")
		})
	})

	Convey("Given instants around the autumn fall-back transition", t, func() {
		// Clocks go back 2024-10-27 at 02:00 BST -> 01:00 GMT.
		Convey("Then the repeated hour still belongs to a single civil day", func() {
			before := civil.Today(time.Date(2024, 10, 27, 0, 30, 0, 0, time.UTC), london)
			after := civil.Today(time.Date(2024, 10, 27, 1, 30, 0, 0, time.UTC), london)
			So(before.ISODate(), ShouldEqual, "2024-10-27")
			So(after.ISODate(), ShouldEqual, "2024-10-27")
		})
	})
}

func TestDerivedAttributes(t *testing.T) {
	london := mustLoc(t, "Europe/London")

	Convey("Given known civil dates", t, func() {
		Convey("Then DayOfYear counts whole civil days from Jan 1, 1-based", func() {
			jan1 := civil.Today(time.Date(2024, 1, 1, 12, 0, 0, 0, london), london)
			So(jan1.DayOfYear(), ShouldEqual, 1)

			may6 := civil.Today(time.Date(2024, 5, 6, 12, 0, 0, 0, london), london)
			So(may6.DayOfYear(), ShouldEqual, 127)

			// Day counting is unaffected by the DST day being 23 hours long.
			apr1 := civil.Today(time.Date(2024, 4, 1, 12, 0, 0, 0, london), london)
			So(apr1.DayOfYear(), ShouldEqual, 92)
		})

		Convey("Then WeekdayCode yields three-letter codes", func() {
			mon := civil.Today(time.Date(2024, 3, 4, 12, 0, 0, 0, london), london)
			So(mon.WeekdayCode(), ShouldEqual, "Mon")

			sun := civil.Today(time.Date(2024, 3, 10, 12, 0, 0, 0, london), london)
			So(sun.WeekdayCode(), ShouldEqual, "Sun")
		})

		Convey("Then ISOWeek follows ISO-8601 year-boundary rules", func() {
			// 2021-01-01 is a Friday and belongs to week 53 of 2020.
			d := civil.Today(time.Date(2021, 1, 1, 12, 0, 0, 0, london), london)
			So(d.ISOWeek(), ShouldEqual, 53)

			// 2024-03-04 opens ISO week 10.
			d = civil.Today(time.Date(2024, 3, 4, 12, 0, 0, 0, london), london)
			So(d.ISOWeek(), ShouldEqual, 10)

			// 2024-12-30 (Monday) already belongs to week 1 of 2025.
			d = civil.Today(time.Date(2024, 12, 30, 12, 0, 0, 0, london), london)
			So(d.ISOWeek(), ShouldEqual, 1)
		})

		Convey("Then ISODate formats zero-padded keys", func() {
			d := civil.Today(time.Date(2024, 3, 4, 12, 0, 0, 0, london), london)
			So(d.ISODate(), ShouldEqual, "2024-03-04")
			So(d.String(), ShouldEqual, "2024-03-04")
		})
	})
}
