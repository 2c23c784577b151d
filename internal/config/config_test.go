package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"dutyboard/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultsAndNormalize(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.DefaultConfig()

		So(cfg.Timezone, ShouldEqual, "Europe/London")
		So(cfg.RefreshCron, ShouldEqual, "0 * * * *")
		So(cfg.HourlyCount, ShouldEqual, 6)
		So(cfg.Location.TimeoutSeconds, ShouldEqual, 5)
		So(cfg.Location.CacheMinutes, ShouldEqual, 10)
		So(cfg.Slideshow.IntervalSeconds, ShouldEqual, 30)
	})

	Convey("Given a partially-filled config", t, func() {
		cfg := &config.Config{Listen: "0.0.0.0:9000", HourlyCount: -1}
		cfg.Normalize()

		Convey("Then zero values are filled but explicit ones kept", func() {
			So(cfg.Listen, ShouldEqual, "0.0.0.0:9000")
			So(cfg.Timezone, ShouldEqual, "Europe/London")
			So(cfg.HourlyCount, ShouldEqual, 6)
			So(cfg.Location.FallbackLatitude, ShouldAlmostEqual, 51.5074, 0.0001)
		})
	})
}

func TestLoadSave(t *testing.T) {
	Convey("Given a missing config file", t, func() {
		path := filepath.Join(t.TempDir(), "conf", "config.yaml")

		cfg, err := config.Load(path)

		Convey("Then a default config is created on disk with 0600 perms", func() {
			So(err, ShouldBeNil)
			So(cfg.Timezone, ShouldEqual, "Europe/London")

			info, statErr := os.Stat(path)
			So(statErr, ShouldBeNil)
			So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
		})
	})

	Convey("Given an existing config file", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := []byte("listen: 0.0.0.0:8090\ntimezone: Europe/Dublin\nslideshow:\n  interval_seconds: 10\n")
		So(os.WriteFile(path, body, 0o600), ShouldBeNil)

		cfg, err := config.Load(path)

		Convey("Then values load and missing fields normalize", func() {
			So(err, ShouldBeNil)
			So(cfg.Listen, ShouldEqual, "0.0.0.0:8090")
			So(cfg.Timezone, ShouldEqual, "Europe/Dublin")
			So(cfg.Slideshow.IntervalSeconds, ShouldEqual, 10)
			So(cfg.RefreshCron, ShouldEqual, "0 * * * *")
		})
	})

	Convey("Given an unreadable YAML body", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		So(os.WriteFile(path, []byte("listen: [unbalanced"), 0o600), ShouldBeNil)

		_, err := config.Load(path)
		So(err, ShouldNotBeNil)
	})

	Convey("Given an empty path", t, func() {
		_, err := config.Load("")
		So(err, ShouldNotBeNil)
		So(config.Save("", config.DefaultConfig()), ShouldNotBeNil)
	})
}
