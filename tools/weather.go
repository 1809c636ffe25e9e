package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/httpkit"
)

const defaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// WeatherTool fetches current conditions for a coordinate pair from the
// Open-Meteo forecast API.
type WeatherTool struct {
	client  *http.Client
	baseURL string
}

func NewWeatherTool(client *http.Client) *WeatherTool {
	return &WeatherTool{client: client, baseURL: defaultForecastURL}
}

func (t *WeatherTool) Name() Name { return WeatherLookup }

func (t *WeatherTool) Description() string {
	return `Looks up the current weather at a coordinate. Parameter: latitude and longitude as two comma-separated numbers, latitude first, e.g. weatherLookup(48.85, 2.35).`
}

func (t *WeatherTool) Invoke(ctx context.Context, parameter string) (string, error) {
	lat, lon, err := parseLatLon(parameter)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current", "temperature_2m,apparent_temperature,weather_code,wind_speed_10m")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "building forecast request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "forecast request failed")
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("forecast API returned %s: %s", resp.Status, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			FeelsLike   float64 `json:"apparent_temperature"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrapf(err, "decoding forecast response")
	}

	c := payload.Current
	return fmt.Sprintf("%s, %.1f°C (feels like %.1f°C), wind %.1f km/h",
		describeWeatherCode(c.WeatherCode), c.Temperature, c.FeelsLike, c.WindSpeed), nil
}

// parseLatLon parses a "latitude, longitude" parameter. Both fields must be
// numeric; anything else is an invalid parameter, and no upstream call is
// made on its behalf.
func parseLatLon(parameter string) (float64, float64, error) {
	parts := strings.Split(parameter, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected two comma-separated numbers (latitude, longitude), got %q", parameter)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, errors.New("latitude %q is not a number", strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, errors.New("longitude %q is not a number", strings.TrimSpace(parts[1]))
	}
	return lat, lon, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// describeWeatherCode maps the WMO weather interpretation codes Open-Meteo
// returns onto short human phrases.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return fmt.Sprintf("Weather code %d", code)
	}
}
