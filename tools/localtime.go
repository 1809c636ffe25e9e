package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/httpkit"
)

const defaultTimeURL = "https://timeapi.io/api/time/current/coordinate"

// TimeTool fetches the local time at a coordinate from timeapi.io. The
// upstream is far slower than the other tools, so on top of the shared
// client timeout it enforces its own hard deadline and resolves to an error
// rather than hang.
type TimeTool struct {
	client  *http.Client
	baseURL string
	ceiling time.Duration
}

func NewTimeTool(client *http.Client, ceiling time.Duration) *TimeTool {
	return &TimeTool{client: client, baseURL: defaultTimeURL, ceiling: ceiling}
}

func (t *TimeTool) Name() Name { return TimeLookup }

func (t *TimeTool) Description() string {
	return `Looks up the current local time at a coordinate. Parameter: latitude and longitude as two comma-separated numbers, latitude first, e.g. timeLookup(48.85, 2.35).`
}

func (t *TimeTool) Invoke(ctx context.Context, parameter string) (string, error) {
	lat, lon, err := parseLatLon(parameter)
	if err != nil {
		return "", err
	}

	if t.ceiling > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.ceiling)
		defer cancel()
	}

	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "building time request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "time request failed")
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("time API returned %s: %s", resp.Status, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var payload struct {
		DateTime  string `json:"dateTime"`
		TimeZone  string `json:"timeZone"`
		DayOfWeek string `json:"dayOfWeek"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrapf(err, "decoding time response")
	}
	if payload.DateTime == "" {
		return "", errors.New("time API returned an empty result")
	}

	out := fmt.Sprintf("Local time: %s", payload.DateTime)
	if payload.TimeZone != "" {
		out += fmt.Sprintf(" (%s", payload.TimeZone)
		if payload.DayOfWeek != "" {
			out += fmt.Sprintf(", %s", payload.DayOfWeek)
		}
		out += ")"
	}
	return out, nil
}
