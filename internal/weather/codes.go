package weather

// codeText maps WMO weather codes to a display label and icon.
// Static data; unknown codes get a generic thermometer entry.
type codeText struct {
	Label string
	Icon  string
}

var wmoCodes = map[int]codeText{
	0:  {"Clear", "☀️"},
	1:  {"Mainly clear", "🌤️"},
	2:  {"Partly cloudy", "⛅"},
	3:  {"Overcast", "☁️"},
	45: {"Fog", "🌫️"},
	48: {"Depositing rime fog", "🌫️"},
	51: {"Light drizzle", "🌦️"},
	53: {"Drizzle", "🌦️"},
	55: {"Heavy drizzle", "🌧️"},
	56: {"Freezing drizzle", "🌧️"},
	57: {"Freezing drizzle", "🌧️"},
	61: {"Light rain", "🌧️"},
	63: {"Rain", "🌧️"},
	65: {"Heavy rain", "🌧️"},
	66: {"Freezing rain", "🌧️"},
	67: {"Freezing rain", "🌧️"},
	71: {"Light snow", "🌨️"},
	73: {"Snow", "🌨️"},
	75: {"Heavy snow", "❄️"},
	77: {"Snow grains", "❄️"},
	80: {"Light showers", "🌦️"},
	81: {"Showers", "🌦️"},
	82: {"Heavy showers", "🌧️"},
	85: {"Snow showers", "🌨️"},
	86: {"Heavy snow showers", "❄️"},
	95: {"Thunderstorm", "⛈️"},
	96: {"Thunderstorm with hail", "⛈️"},
	99: {"Thunderstorm with heavy hail", "⛈️"},
}

// CodeToText resolves a WMO weather code into label and icon.
func CodeToText(code int) (string, string) {
	if ct, ok := wmoCodes[code]; ok {
		return ct.Label, ct.Icon
	}
	return "Weather", "🌡️"
}
