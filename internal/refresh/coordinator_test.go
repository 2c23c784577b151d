package refresh_test

import (
	"testing"

	"dutyboard/internal/refresh"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCoordinator(t *testing.T) {
	Convey("Given a fresh coordinator", t, func() {
		coord := refresh.NewCoordinator()

		Convey("When one generation is begun", func() {
			tok := coord.Begin()

			Convey("Then it is current", func() {
				So(coord.IsCurrent(tok), ShouldBeTrue)
			})
		})

		Convey("When a second generation supersedes the first", func() {
			tok1 := coord.Begin()
			tok2 := coord.Begin()

			Convey("Then only the newest token is current", func() {
				So(coord.IsCurrent(tok1), ShouldBeFalse)
				So(coord.IsCurrent(tok2), ShouldBeTrue)
			})

			Convey("Then tokens are strictly increasing", func() {
				So(tok2, ShouldBeGreaterThan, tok1)
			})
		})

		Convey("When an older refresh completes after a newer one committed", func() {
			// Scenario from the display: generation 1 starts, stalls on I/O;
			// generation 2 starts, resolves, and commits first.
			state := ""

			tok1 := coord.Begin()
			tok2 := coord.Begin()

			// Generation 2 resolves and commits.
			if coord.IsCurrent(tok2) {
				state = "fresh"
			}

			// Generation 1 resolves late; its commit must be a no-op.
			if coord.IsCurrent(tok1) {
				state = "stale"
			}

			Convey("Then the stale result never overwrites the fresh one", func() {
				So(state, ShouldEqual, "fresh")
				So(coord.IsCurrent(tok1), ShouldBeFalse)
			})
		})

		Convey("When coordinators are independent per resource", func() {
			other := refresh.NewCoordinator()
			tok := coord.Begin()
			other.Begin()
			other.Begin()

			Convey("Then one panel's generations do not invalidate another's", func() {
				So(coord.IsCurrent(tok), ShouldBeTrue)
			})
		})
	})
}
