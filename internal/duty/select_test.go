package duty_test

import (
	"testing"
	"time"

	"dutyboard/internal/civil"
	"dutyboard/internal/duty"
	"dutyboard/internal/model"
	. "github.com/smartystreets/goconvey/convey"
)

func londonDate(t *testing.T, y int, m time.Month, d int) civil.Date {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return civil.Today(time.Date(y, m, d, 12, 0, 0, 0, loc), loc)
}

func TestSelect(t *testing.T) {
	Convey("Given a roster with weekday assignments", t, func() {
		roster := []model.Contact{
			{Slug: "a", Name: "Alice", Days: []string{"Mon"}},
			{Slug: "b", Name: "Bob", Days: []string{"Tue"}},
		}

		Convey("When today has an exact-date override", func() {
			// 2024-03-04 is a Monday; the weekday rotation would pick "a".
			monday := londonDate(t, 2024, time.March, 4)
			overrides := duty.Overrides{"2024-03-04": "b"}

			chosen, ok := duty.Select(roster, overrides, monday)

			Convey("Then the override wins over the weekday match", func() {
				So(ok, ShouldBeTrue)
				So(chosen.Slug, ShouldEqual, "b")
			})
		})

		Convey("When the override names a slug absent from the roster", func() {
			monday := londonDate(t, 2024, time.March, 4)
			overrides := duty.Overrides{"2024-03-04": "ghost"}

			chosen, ok := duty.Select(roster, overrides, monday)

			Convey("Then selection falls through to the weekday rotation", func() {
				So(ok, ShouldBeTrue)
				So(chosen.Slug, ShouldEqual, "a")
			})
		})

		Convey("When weekday matching is compared case-insensitively", func() {
			roster := []model.Contact{
				{Slug: "a", Days: []string{"mon"}},
				{Slug: "b", Days: []string{"TUE"}},
			}
			tuesday := londonDate(t, 2024, time.March, 5)

			chosen, ok := duty.Select(roster, nil, tuesday)

			So(ok, ShouldBeTrue)
			So(chosen.Slug, ShouldEqual, "b")
		})
	})

	Convey("Given two candidates sharing the same weekday", t, func() {
		roster := []model.Contact{
			{Slug: "w1", Days: []string{"Wed"}},
			{Slug: "w2", Days: []string{"Wed"}},
		}

		Convey("When selecting across consecutive ISO weeks", func() {
			wedWeek10 := londonDate(t, 2024, time.March, 6)
			wedWeek11 := londonDate(t, 2024, time.March, 13)

			first, ok1 := duty.Select(roster, nil, wedWeek10)
			second, ok2 := duty.Select(roster, nil, wedWeek11)

			Convey("Then the rotation alternates between them", func() {
				So(ok1, ShouldBeTrue)
				So(ok2, ShouldBeTrue)
				So(first.Slug, ShouldEqual, "w1")  // week 10 mod 2 == 0
				So(second.Slug, ShouldEqual, "w2") // week 11 mod 2 == 1
			})
		})
	})

	Convey("Given no override and no weekday match", t, func() {
		roster := []model.Contact{
			{Slug: "c0"}, {Slug: "c1"}, {Slug: "c2"}, {Slug: "c3"}, {Slug: "c4"},
		}

		Convey("When selecting on day-of-year 127", func() {
			// 2024-05-06 is civil day 127.
			date := londonDate(t, 2024, time.May, 6)
			So(date.DayOfYear(), ShouldEqual, 127)

			chosen, ok := duty.Select(roster, duty.Overrides{}, date)

			Convey("Then the fallback picks roster[127 mod 5]", func() {
				So(ok, ShouldBeTrue)
				So(chosen.Slug, ShouldEqual, "c2")
			})
		})
	})

	Convey("Given an empty roster", t, func() {
		chosen, ok := duty.Select(nil, duty.Overrides{"2024-03-04": "b"}, londonDate(t, 2024, time.March, 4))

		Convey("Then selection reports none was chosen", func() {
			So(ok, ShouldBeFalse)
			So(chosen, ShouldResemble, model.Contact{})
		})
	})
}
