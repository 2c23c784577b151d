package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocationConfig controls best-effort geolocation for the weather panel.
type LocationConfig struct {
	// Endpoint is a JSON IP-geolocation URL answering {"lat":..,"lon":..}.
	// Empty means: always use the fallback coordinate.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Fallback coordinate used when the endpoint is unset, slow, or failing.
	FallbackLatitude  float64 `yaml:"fallback_latitude" json:"fallback_latitude"`
	FallbackLongitude float64 `yaml:"fallback_longitude" json:"fallback_longitude"`

	// TimeoutSeconds bounds a single locate call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// CacheMinutes is how long a resolved coordinate stays valid.
	CacheMinutes int `yaml:"cache_minutes" json:"cache_minutes"`
}

// SlideshowConfig controls the rotating pages panel.
type SlideshowConfig struct {
	// IntervalSeconds is the fixed rotation cadence.
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`
}

// PreviewConfig controls the chromium snapshot of the rendered board.
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the board page and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA civil timezone all day/week arithmetic is
	// anchored in (e.g. "Europe/London").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule for the periodic refresh.
	// The default fires at every top-of-hour boundary.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ContactsURL is the contacts document (roster + assignments).
	ContactsURL string `yaml:"contacts_url" json:"contacts_url"`

	// PagesURL is the slideshow pages document.
	PagesURL string `yaml:"pages_url" json:"pages_url"`

	// DutyCalendarURL is an optional ICS feed of duty overrides.
	DutyCalendarURL string `yaml:"duty_calendar_url" json:"duty_calendar_url"`

	// WeatherURL is the forecast endpoint.
	WeatherURL string `yaml:"weather_url" json:"weather_url"`

	// WarningsURL is the advisory endpoint. Empty disables the panel.
	WarningsURL string `yaml:"warnings_url" json:"warnings_url"`

	// HourlyCount is how many upcoming hourly forecast entries to show.
	HourlyCount int `yaml:"hourly_count" json:"hourly_count"`

	// CacheDir is where fetched documents are cached on disk.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Location  LocationConfig  `yaml:"location" json:"location"`
	Slideshow SlideshowConfig `yaml:"slideshow" json:"slideshow"`
	Preview   PreviewConfig   `yaml:"preview" json:"preview"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Europe/London",
		RefreshCron: "0 * * * *",
		WeatherURL:  "https://api.open-meteo.com/v1/forecast",
		HourlyCount: 6,
		CacheDir:    "/var/lib/dutyboard/doc-cache",
		Location: LocationConfig{
			FallbackLatitude:  51.5074,
			FallbackLongitude: -0.1278,
			TimeoutSeconds:    5,
			CacheMinutes:      10,
		},
		Slideshow: SlideshowConfig{
			IntervalSeconds: 30,
		},
		Preview: PreviewConfig{
			Path:   "/var/lib/dutyboard/preview.png",
			Width:  1920,
			Height: 1080,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/London"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 * * * *"
	}
	if c.WeatherURL == "" {
		c.WeatherURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.HourlyCount <= 0 {
		c.HourlyCount = 6
	}
	if c.CacheDir == "" {
		c.CacheDir = "/var/lib/dutyboard/doc-cache"
	}
	if c.Location.FallbackLatitude == 0 && c.Location.FallbackLongitude == 0 {
		c.Location.FallbackLatitude = 51.5074
		c.Location.FallbackLongitude = -0.1278
	}
	if c.Location.TimeoutSeconds <= 0 {
		c.Location.TimeoutSeconds = 5
	}
	if c.Location.CacheMinutes <= 0 {
		c.Location.CacheMinutes = 10
	}
	if c.Slideshow.IntervalSeconds <= 0 {
		c.Slideshow.IntervalSeconds = 30
	}
	if c.Preview.Path == "" {
		c.Preview.Path = "/var/lib/dutyboard/preview.png"
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = 1920
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = 1080
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".dutyboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
