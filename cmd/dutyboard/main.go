package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"dutyboard/internal/alerts"
	"dutyboard/internal/board"
	"dutyboard/internal/capture"
	"dutyboard/internal/config"
	"dutyboard/internal/dutycal"
	"dutyboard/internal/fetch"
	"dutyboard/internal/geo"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/refresh"
	"dutyboard/internal/roster"
	"dutyboard/internal/slideshow"
	"dutyboard/internal/trigger"
	"dutyboard/internal/weather"
	"dutyboard/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("dutyboard starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	zone, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"contacts_url", fetch.RedactURL(conf.ContactsURL),
		"pages_url", fetch.RedactURL(conf.PagesURL),
		"hourly_count", conf.HourlyCount,
		"slideshow_interval_s", conf.Slideshow.IntervalSeconds,
		"preview_enabled", conf.Preview.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := buildApp(conf, zone)

	if flags.once {
		a.cycle(ctx)
		appLog.Info("single refresh cycle complete, exiting")
		return
	}

	tr, err := trigger.New(zone, conf.RefreshCron, func() { a.cycle(ctx) })
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}

	// Signal handling: INT/TERM stop, HUP is the resume/refresh-now path.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				appLog.Info("SIGHUP received, refreshing now")
				tr.Kick()
				continue
			}
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
			return
		}
	}()

	// Slideshow: the asset sequence is loaded once per display session.
	engine := a.startSlideshow(ctx, conf)

	var nextSlide func()
	if engine != nil {
		nextSlide = engine.Next
	}

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, a.store, tr.Kick, nextSlide).Handler(),
	}
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	go tr.Run(ctx)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	appLog.Info("dutyboard exiting")
}

// app bundles the composition root's long-lived pieces.
type app struct {
	conf  *config.Config
	zone  *time.Location
	store *board.Store

	contactTask  *roster.Task
	weatherTask  *weather.Task
	warningsTask *alerts.Task

	fetcher *fetch.Fetcher
}

func buildApp(conf *config.Config, zone *time.Location) *app {
	store := board.NewStore()
	fetcher := fetch.NewFetcher(conf.CacheDir)

	locator := geo.NewHTTPProvider(conf.Location.Endpoint, geo.Coordinates{
		Latitude:  conf.Location.FallbackLatitude,
		Longitude: conf.Location.FallbackLongitude,
	})
	locator.Timeout = time.Duration(conf.Location.TimeoutSeconds) * time.Second
	locator.CacheTTL = time.Duration(conf.Location.CacheMinutes) * time.Minute

	var calendar roster.OverrideSource
	if conf.DutyCalendarURL != "" {
		calendar = &dutycal.Feed{
			Fetcher: fetcher,
			Source:  fetch.Source{ID: "duty-calendar", URL: conf.DutyCalendarURL},
			Zone:    zone,
		}
	}

	return &app{
		conf:    conf,
		zone:    zone,
		store:   store,
		fetcher: fetcher,
		contactTask: &roster.Task{
			Coord:    refresh.NewCoordinator(),
			Fetcher:  fetcher,
			Source:   fetch.Source{ID: "contacts", URL: conf.ContactsURL},
			Calendar: calendar,
			Surface:  store,
			Zone:     zone,
			Now:      time.Now,
		},
		weatherTask: &weather.Task{
			Coord:       refresh.NewCoordinator(),
			Locator:     locator,
			Client:      weather.NewClient(conf.WeatherURL, zone),
			Surface:     store,
			Now:         time.Now,
			HourlyCount: conf.HourlyCount,
		},
		warningsTask: &alerts.Task{
			Coord:   refresh.NewCoordinator(),
			URL:     conf.WarningsURL,
			Surface: store,
		},
	}
}

// cycle runs one refresh of every panel. Panels refresh independently:
// one panel's failure never touches another's, and each task's own
// coordinator discards superseded results.
func (a *app) cycle(ctx context.Context) {
	cycleID := uuid.NewString()[:8]
	appLog.Info("refresh cycle starting", "cycle", cycleID)

	var wg sync.WaitGroup
	run := func(fn func(context.Context, string)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx, cycleID)
		}()
	}

	if a.conf.ContactsURL != "" {
		run(a.contactTask.Run)
	}
	if a.conf.WeatherURL != "" {
		run(a.weatherTask.Run)
	}
	if a.conf.WarningsURL != "" {
		run(a.warningsTask.Run)
	}
	wg.Wait()

	appLog.Info("refresh cycle complete", "cycle", cycleID)

	if a.conf.Preview.Enabled {
		a.capturePreview(ctx, cycleID)
	}
}

func (a *app) capturePreview(ctx context.Context, cycleID string) {
	err := capture.BoardPNG(ctx, capture.Options{
		URL:        "http://" + a.conf.Listen + "/",
		OutputPath: a.conf.Preview.Path,
		Width:      a.conf.Preview.Width,
		Height:     a.conf.Preview.Height,
	})
	if err != nil {
		appLog.Error("board preview capture failed", err, "cycle", cycleID)
		return
	}
	appLog.Info("board preview captured", "cycle", cycleID, "path", a.conf.Preview.Path)
}

// startSlideshow fetches the pages document once and starts the engine.
// Returns nil when no pages are configured or available.
func (a *app) startSlideshow(ctx context.Context, conf *config.Config) *slideshow.Engine {
	if conf.PagesURL == "" {
		appLog.Info("slideshow disabled: no pages_url configured")
		return nil
	}

	res, err := a.fetcher.FetchOne(ctx, fetch.Source{ID: "pages", URL: conf.PagesURL})
	if err != nil {
		appLog.Error("pages document fetch failed, slideshow disabled", err)
		return nil
	}
	assets, err := roster.ParsePages(res.Body)
	if err != nil {
		appLog.Error("pages document parse failed, slideshow disabled", err)
		return nil
	}

	engine := slideshow.New(
		assets,
		a.store,
		&slideshow.HTTPPreloader{},
		time.Duration(conf.Slideshow.IntervalSeconds)*time.Second,
	)
	go engine.Run(ctx)
	return engine
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/dutyboard/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
