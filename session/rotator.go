package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"order-track-api/model"
	"time"
)

// HTTPRotator calls the server's refresh endpoint. A rotation that neither
// succeeds nor fails within the client timeout is treated as failed; the
// coordinator then forces re-authentication rather than hang its callers.
type HTTPRotator struct {
	client     *http.Client
	refreshURL string
}

// NewHTTPRotator creates a rotator against the given refresh endpoint URL.
func NewHTTPRotator(refreshURL string, timeout time.Duration) *HTTPRotator {
	return &HTTPRotator{
		client:     &http.Client{Timeout: timeout},
		refreshURL: refreshURL,
	}
}

// Rotate exchanges the refresh token for a new pair via the refresh endpoint.
func (r *HTTPRotator) Rotate(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	body, err := json.Marshal(model.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var rejection struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&rejection)
		return nil, fmt.Errorf("refresh rejected (%d, %s): %s", resp.StatusCode, rejection.Reason, rejection.Message)
	}

	pair := &model.TokenPair{}
	if err := json.NewDecoder(resp.Body).Decode(pair); err != nil {
		return nil, err
	}
	return pair, nil
}
