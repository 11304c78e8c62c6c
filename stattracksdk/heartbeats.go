package stattracksdk

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

// Heartbeat is a single activity ping as emitted by an editor plugin.
// Time is unix seconds and may carry a fractional part.
type Heartbeat struct {
	Entity        string  `json:"entity" validate:"required"`
	Type          string  `json:"type,omitempty"`
	Category      string  `json:"category,omitempty"`
	Time          float64 `json:"time" validate:"required"`
	Project       string  `json:"project,omitempty"`
	Language      string  `json:"language,omitempty"`
	Branch        string  `json:"branch,omitempty"`
	IsWrite       bool    `json:"is_write,omitempty"`
	Lines         *int64  `json:"lines,omitempty"`
	LineAdditions *int64  `json:"line_additions,omitempty"`
	LineDeletions *int64  `json:"line_deletions,omitempty"`
	Dependencies  string  `json:"dependencies,omitempty"`
	MachineName   string  `json:"machine_name,omitempty"`
}

// HeartbeatsResponse reports how many heartbeats the server accepted
// for processing. Per-record statuses are not echoed.
type HeartbeatsResponse struct {
	Count int `json:"count"`
}

// PostHeartbeats submits a batch of heartbeats under the client's
// session token and returns the accepted count.
func (c *Client) PostHeartbeats(ctx context.Context, beats []Heartbeat) (int, error) {
	res, err := c.Request(ctx, http.MethodPost, "/api/v1/users/me/heartbeats", beats)
	if err != nil {
		return 0, xerrors.Errorf("execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted {
		return 0, readBodyAsError(res)
	}

	var resp HeartbeatsResponse
	err = json.NewDecoder(res.Body).Decode(&resp)
	if err != nil {
		return 0, xerrors.Errorf("decode response: %w", err)
	}
	return resp.Count, nil
}

// DailySummary is one calendar day of total coding time for a user.
type DailySummary struct {
	UserID               uuid.UUID `json:"user_id"`
	SummaryDate          time.Time `json:"summary_date"`
	TotalDurationSeconds int64     `json:"total_duration_seconds"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DailySummaries returns the authenticated user's summaries, oldest
// first. Totals only ever increase, so responses cache well.
func (c *Client) DailySummaries(ctx context.Context) ([]DailySummary, error) {
	res, err := c.Request(ctx, http.MethodGet, "/api/v1/users/me/summaries", nil)
	if err != nil {
		return nil, xerrors.Errorf("execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, readBodyAsError(res)
	}

	var summaries []DailySummary
	err = json.NewDecoder(res.Body).Decode(&summaries)
	if err != nil {
		return nil, xerrors.Errorf("decode response: %w", err)
	}
	return summaries, nil
}

// BuildInfoResponse contains build information for this instance.
type BuildInfoResponse struct {
	// ExternalURL references the current server version.
	ExternalURL string `json:"external_url"`
	// Version returns the semantic version of the build.
	Version string `json:"version"`
}

// BuildInfo returns build information for the server.
func (c *Client) BuildInfo(ctx context.Context) (BuildInfoResponse, error) {
	res, err := c.Request(ctx, http.MethodGet, "/api/v1/buildinfo", nil)
	if err != nil {
		return BuildInfoResponse{}, xerrors.Errorf("execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return BuildInfoResponse{}, readBodyAsError(res)
	}

	var resp BuildInfoResponse
	err = json.NewDecoder(res.Body).Decode(&resp)
	if err != nil {
		return BuildInfoResponse{}, xerrors.Errorf("decode response: %w", err)
	}
	return resp, nil
}
