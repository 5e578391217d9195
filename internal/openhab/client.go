// Package openhab is a small client for the openHAB REST API: it lists and
// fetches items, reads the instance UUID, and posts item commands.
//
// Every call forwards the bearer token the assistant presented, so openHAB
// performs its own authorisation.
package openhab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/openhab-ghome/internal/infrastructure/config"
	"github.com/nerrad567/openhab-ghome/internal/item"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 16 << 20
)

// Client talks to one openHAB instance.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL    string
	itemPath   string
	uuidPath   string
	httpClient *http.Client
}

// New creates a client from the openhab config section.
func New(cfg config.OpenHABConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	itemPath := cfg.ItemPath
	if itemPath == "" {
		itemPath = "/rest/items/"
	}
	uuidPath := cfg.UUIDPath
	if uuidPath == "" {
		uuidPath = "/rest/uuid"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		itemPath:   itemPath,
		uuidPath:   uuidPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetItems returns every item with group members expanded.
func (c *Client) GetItems(ctx context.Context, token string) ([]item.Item, error) {
	var items []item.Item
	if err := c.getJSON(ctx, token, c.itemURL(""), &items); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// GetItem returns a single item with group members expanded.
func (c *Client) GetItem(ctx context.Context, token, name string) (*item.Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	var it item.Item
	if err := c.getJSON(ctx, token, c.itemURL(name), &it); err != nil {
		return nil, fmt.Errorf("getting item %s: %w", name, err)
	}
	return &it, nil
}

// GetUID returns the openHAB instance UUID, used as the agent user id.
func (c *Client) GetUID(ctx context.Context, token string) (string, error) {
	body, err := c.do(ctx, token, http.MethodGet, c.baseURL+c.uuidPath, nil)
	if err != nil {
		return "", fmt.Errorf("getting uuid: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// SendCommand posts a raw command value to an item.
func (c *Client) SendCommand(ctx context.Context, token, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := c.do(ctx, token, http.MethodPost, c.baseURL+c.itemPath+url.PathEscape(name), strings.NewReader(value)); err != nil {
		return fmt.Errorf("sending %q to %s: %w", value, name, err)
	}
	return nil
}

// HealthCheck fetches the UUID endpoint without credentials. Any answer short
// of a transport error or 5xx means openHAB is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.uuidPath, nil)
	if err != nil {
		return fmt.Errorf("openhab health check: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openhab health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("openhab health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) itemURL(name string) string {
	return c.baseURL + c.itemPath + url.PathEscape(name) + "?recursive=true"
}

func (c *Client) getJSON(ctx context.Context, token, target string, v any) error {
	body, err := c.do(ctx, token, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, token, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrItemNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorised
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return data, nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/?#") {
		return fmt.Errorf("%w: %q", ErrInvalidItemName, name)
	}
	return nil
}
