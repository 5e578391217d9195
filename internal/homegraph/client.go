// Package homegraph pushes device state to Google HomeGraph
// (devices:reportStateAndNotification) using a service account.
package homegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/openhab-ghome/internal/device"
	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20
)

// Report is the request body of reportStateAndNotification.
type Report struct {
	RequestID   string        `json:"requestId"`
	AgentUserID string        `json:"agentUserId"`
	Payload     ReportPayload `json:"payload"`
}

// ReportPayload carries the device states being reported.
type ReportPayload struct {
	Devices ReportDevices `json:"devices"`
}

// ReportDevices maps device id to its state.
type ReportDevices struct {
	States map[string]device.State `json:"states"`
}

// Client reports state to HomeGraph.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tokens     *tokenSource
}

// New creates a client from config and a parsed service account. The token
// URL falls back to the key file's token_uri when the config leaves it empty.
func New(cfg config.HomeGraphConfig, sa *ServiceAccount) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if sa == nil || sa.key == nil {
		return nil, ErrInvalidServiceAccount
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = sa.TokenURI
	}
	if tokenURL == "" {
		return nil, fmt.Errorf("%w: no token url", ErrInvalidServiceAccount)
	}

	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		tokens: &tokenSource{
			sa:         sa,
			tokenURL:   tokenURL,
			httpClient: httpClient,
			now:        time.Now,
		},
	}, nil
}

// Connect loads the configured service account file and creates a client.
func Connect(cfg config.HomeGraphConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	sa, err := LoadServiceAccount(cfg.ServiceAccountFile)
	if err != nil {
		return nil, err
	}
	return New(cfg, sa)
}

// ReportState sends the given device states for agentUserID and returns the
// generated request id.
func (c *Client) ReportState(ctx context.Context, agentUserID string, states map[string]device.State) (string, error) {
	report := Report{
		RequestID:   uuid.NewString(),
		AgentUserID: agentUserID,
		Payload:     ReportPayload{Devices: ReportDevices{States: states}},
	}
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes)) //nolint:errcheck // body is only used for the error message
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ErrReportFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return report.RequestID, nil
}
