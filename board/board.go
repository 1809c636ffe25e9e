// Package board talks to the collaboration board's REST API. The only write
// path the agent needs is appending activities to a session's feed, so the
// client implements agent.ActivitySink directly.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/boardpilot/boardpilot/agent"
	"github.com/boardpilot/boardpilot/errors"
	"github.com/boardpilot/boardpilot/httpkit"
)

// Client posts activities to the board API on behalf of one account. It is
// safe for concurrent use; the access token is fixed at construction because
// each webhook turn builds its own client with a fresh token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewClient(httpClient *http.Client, baseURL, accessToken string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
}

// Publish appends one activity to the session's feed. Any non-2xx status is
// an error so the session loop can retry or abandon the turn.
func (c *Client) Publish(ctx context.Context, sessionID string, activity agent.Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return errors.Wrapf(err, "encoding activity")
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/activities", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "building board request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "posting activity to board")
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("board API returned %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	return nil
}
