package alerts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"dutyboard/internal/alerts"
	"dutyboard/internal/board"
	"dutyboard/internal/model"
	"dutyboard/internal/refresh"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeSeverity(t *testing.T) {
	Convey("Given free-text severity fields", t, func() {
		cases := map[string]model.Severity{
			"RED warning":          model.SeverityRed,
			"Amber":                model.SeverityAmber,
			"yellow":               model.SeverityYellow,
			"Severe AMBER alert":   model.SeverityAmber,
			"red and amber mixed":  model.SeverityRed,
			"something unexpected": model.SeverityYellow,
			"":                     model.SeverityYellow,
		}

		for raw, want := range cases {
			So(alerts.NormalizeSeverity(raw), ShouldEqual, want)
		}
	})
}

func TestParse(t *testing.T) {
	Convey("Given a single-object payload with mixed severities", t, func() {
		body := []byte(`{
			"warnings": [
				{"severity": "yellow", "headline": "Wind"},
				{"severity": "red", "headline": "Flooding"},
				{"severity": "amber", "event": "Snow"}
			]
		}`)

		view, err := alerts.Parse(body)

		Convey("Then items sort most severe first and the max is computed", func() {
			So(err, ShouldBeNil)
			So(view.MaxSeverity, ShouldEqual, model.SeverityRed)
			So(view.Items, ShouldHaveLength, 3)
			So(view.Items[0].Headline, ShouldEqual, "Flooding")
			So(view.Items[1].Headline, ShouldEqual, "Snow") // event used when headline absent
			So(view.Items[2].Headline, ShouldEqual, "Wind")
		})
	})

	Convey("Given a server-supplied overall severity", t, func() {
		body := []byte(`{
			"maxSeverity": "amber",
			"warnings": [{"severity": "yellow", "headline": "Fog"}]
		}`)

		view, err := alerts.Parse(body)

		Convey("Then the supplied value wins over the computed one", func() {
			So(err, ShouldBeNil)
			So(view.MaxSeverity, ShouldEqual, model.SeverityAmber)
		})
	})

	Convey("Given an array payload", t, func() {
		body := []byte(`[
			{"updated": "2024-03-04T08:00:00Z",
			 "warnings": [{"severity": "yellow", "headline": "Old"}]},
			{"updated": "2024-03-04T11:00:00Z",
			 "warnings": [{"severity": "amber", "headline": "Fresh"}]}
		]`)

		view, err := alerts.Parse(body)

		Convey("Then the most recently updated envelope is used", func() {
			So(err, ShouldBeNil)
			So(view.Items, ShouldHaveLength, 1)
			So(view.Items[0].Headline, ShouldEqual, "Fresh")
		})
	})

	Convey("Given more than five advisories", t, func() {
		body := []byte(`{
			"warnings": [
				{"severity": "yellow", "headline": "y1"},
				{"severity": "yellow", "headline": "y2"},
				{"severity": "red", "headline": "r1"},
				{"severity": "amber", "headline": "a1"},
				{"severity": "yellow", "headline": "y3"},
				{"severity": "amber", "headline": "a2"},
				{"severity": "yellow", "headline": "y4"}
			]
		}`)

		view, err := alerts.Parse(body)

		Convey("Then only the five most severe are kept, order stable within tiers", func() {
			So(err, ShouldBeNil)
			So(view.Items, ShouldHaveLength, 5)
			So(view.Items[0].Headline, ShouldEqual, "r1")
			So(view.Items[1].Headline, ShouldEqual, "a1")
			So(view.Items[2].Headline, ShouldEqual, "a2")
			So(view.Items[3].Headline, ShouldEqual, "y1")
			So(view.Items[4].Headline, ShouldEqual, "y2")
			So(view.MaxSeverity, ShouldEqual, model.SeverityRed)
		})
	})

	Convey("Given areas delivered as an array", t, func() {
		body := []byte(`{"warnings": [
			{"severity": "yellow", "headline": "Wind", "areas": ["North", "East"]}
		]}`)

		view, err := alerts.Parse(body)

		So(err, ShouldBeNil)
		So(view.Items[0].Areas, ShouldEqual, "North, East")
	})

	Convey("Given an empty or itemless payload", t, func() {
		view, err := alerts.Parse([]byte(`{"warnings": []}`))
		So(err, ShouldBeNil)
		So(view.Items, ShouldBeEmpty)
		So(view.MaxSeverity, ShouldEqual, model.Severity(""))

		view, err = alerts.Parse([]byte(`[]`))
		So(err, ShouldBeNil)
		So(view.Items, ShouldBeEmpty)
	})

	Convey("Given undecodable bytes", t, func() {
		_, err := alerts.Parse([]byte(`{`))
		So(err, ShouldNotBeNil)
	})
}

type warningsSurface struct {
	board.Surface
	mu    sync.Mutex
	views []model.WarningsView
}

func (s *warningsSurface) SetWarnings(w model.WarningsView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, w)
}

func TestTask(t *testing.T) {
	Convey("Given a failing warnings source", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		surface := &warningsSurface{}
		task := &alerts.Task{
			Coord:   refresh.NewCoordinator(),
			URL:     srv.URL,
			Surface: surface,
		}

		task.Run(context.Background(), "a1")

		Convey("Then the explicit empty state is committed, not a fault", func() {
			So(surface.views, ShouldHaveLength, 1)
			So(surface.views[0].Items, ShouldBeEmpty)
		})
	})

	Convey("Given a healthy warnings source", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"warnings": [{"severity": "red", "headline": "Flooding"}]}`))
		}))
		defer srv.Close()

		surface := &warningsSurface{}
		task := &alerts.Task{
			Coord:   refresh.NewCoordinator(),
			URL:     srv.URL,
			Surface: surface,
		}

		task.Run(context.Background(), "a2")

		Convey("Then the parsed view is committed", func() {
			So(surface.views, ShouldHaveLength, 1)
			So(surface.views[0].MaxSeverity, ShouldEqual, model.SeverityRed)
		})
	})
}
