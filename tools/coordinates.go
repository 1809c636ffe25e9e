package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/httpkit"
)

const defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// CoordinatesTool resolves a city name to latitude/longitude using the
// Open-Meteo geocoding API.
type CoordinatesTool struct {
	client  *http.Client
	baseURL string
}

func NewCoordinatesTool(client *http.Client) *CoordinatesTool {
	return &CoordinatesTool{client: client, baseURL: defaultGeocodingURL}
}

func (t *CoordinatesTool) Name() Name { return CoordinatesLookup }

func (t *CoordinatesTool) Description() string {
	return `Looks up the geographic coordinates of a city. Parameter: the city name in double quotes, e.g. coordinatesLookup("Paris").`
}

func (t *CoordinatesTool) Invoke(ctx context.Context, parameter string) (string, error) {
	city := strings.Trim(strings.TrimSpace(parameter), `"'`)
	if city == "" {
		return "", errors.New("a city name is required")
	}

	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "building geocoding request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "geocoding request for %q failed", city)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("geocoding API returned %s: %s", resp.Status, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrapf(err, "decoding geocoding response for %q", city)
	}
	if len(payload.Results) == 0 {
		return "", errors.New("no coordinates found for %q", city)
	}

	r := payload.Results[0]
	place := r.Name
	if r.Country != "" {
		place = fmt.Sprintf("%s, %s", r.Name, r.Country)
	}
	return fmt.Sprintf("%s: latitude %.4f, longitude %.4f", place, r.Latitude, r.Longitude), nil
}
