package model

// Contact is one roster entry: a person who can be on duty.
// Immutable within a single load cycle; the contacts document is re-read
// from scratch on every cycle.
type Contact struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
	Photo string `json:"photo"`
	// Days holds short weekday codes ("Mon".."Sun") this contact rotates on.
	// Matching is case-insensitive.
	Days []string `json:"days"`
}

// SlideAsset is one entry of the slideshow sequence.
type SlideAsset struct {
	Src   string `json:"src"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

// HourlyEntry is one derived hourly-forecast row for the weather panel.
type HourlyEntry struct {
	HourLabel string `json:"hour"`
	TempC     int    `json:"temp_c"`
	Label     string `json:"label"`
	Icon      string `json:"icon"`
}

// WeatherView is the weather panel's committed display state.
type WeatherView struct {
	// Available is false when transport or parsing failed; the remaining
	// fields then hold placeholder values.
	Available bool          `json:"available"`
	TempC     int           `json:"temp_c"`
	Label     string        `json:"label"`
	Icon      string        `json:"icon"`
	Hourly    []HourlyEntry `json:"hourly,omitempty"`
	// ForecastUnavailable is set when the hourly data was exhausted for the
	// rest of the civil day (distinct from a failed fetch).
	ForecastUnavailable bool `json:"forecast_unavailable,omitempty"`
}

// Severity is a normalized warning severity.
type Severity string

const (
	SeverityYellow Severity = "yellow"
	SeverityAmber  Severity = "amber"
	SeverityRed    Severity = "red"
)

// Rank orders severities for comparison; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityRed:
		return 3
	case SeverityAmber:
		return 2
	case SeverityYellow:
		return 1
	default:
		return 0
	}
}

// Warning is one normalized advisory item.
type Warning struct {
	Severity Severity `json:"severity"`
	Headline string   `json:"headline"`
	Areas    string   `json:"areas,omitempty"`
	Starts   string   `json:"starts,omitempty"`
	Ends     string   `json:"ends,omitempty"`
}

// WarningsView is the warnings panel's committed display state.
// An empty Items slice means the panel hides itself.
type WarningsView struct {
	Items       []Warning `json:"items"`
	MaxSeverity Severity  `json:"max_severity,omitempty"`
}
