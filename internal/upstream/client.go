// Package upstream talks to the bot engine backend: the REST API that runs
// the actual signal/backtest machinery. botdeck only reads derived records
// from it and never bypasses it.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"botdeck/internal/bots"
	"botdeck/internal/config"
	"botdeck/internal/pkg/circuit"
	"botdeck/internal/types"
)

// ErrUpstreamUnavailable is returned while a bot's breaker is open.
var ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

// Client wraps one bot's backend API.
type Client struct {
	bot        string
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	username   string
	password   string
	breaker    *circuit.Breaker
}

func NewClient(profile bots.Profile, cfg config.UpstreamConfig) (*Client, error) {
	raw := strings.TrimSpace(profile.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("bot %q: base_url cannot be empty", profile.Name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("bot %q: parsing base_url failed: %w", profile.Name, err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cooldown := time.Duration(cfg.BreakerCooldownSeconds) * time.Second
	return &Client{
		bot:        profile.Name,
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		token:      strings.TrimSpace(profile.APIToken),
		username:   strings.TrimSpace(profile.Username),
		password:   strings.TrimSpace(profile.Password),
		breaker:    circuit.NewBreaker(profile.Name, cfg.BreakerThreshold, cooldown),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Bot returns the bot name this client serves.
func (c *Client) Bot() string { return c.bot }

// ListTrades fetches the bot's full action history.
func (c *Client) ListTrades(ctx context.Context) ([]types.Trade, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, c.path("actions-all"))
	if err != nil {
		return nil, err
	}
	return parseTradeArray(raw)
}

// ListPositions fetches the bot's open simulated/live portfolio.
func (c *Client) ListPositions(ctx context.Context) ([]types.Position, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, c.path("simulated-portfolio"))
	if err != nil {
		return nil, err
	}
	return parsePositionArray(raw)
}

// GetPerformance fetches the backend's partial performance object; nil when
// the backend has none yet.
func (c *Client) GetPerformance(ctx context.Context) (*types.Performance, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, c.path("simulated-performance"))
	if err != nil {
		return nil, err
	}
	return parsePerformance(raw)
}

// TriggerUpdate asks the engine to recompute its state now.
func (c *Client) TriggerUpdate(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, c.path("update"))
	return err
}

func (c *Client) path(op string) string {
	return "/api/" + c.bot + "/" + op
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("upstream client not initialized")
	}
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("%w: bot %s", ErrUpstreamUnavailable, c.bot)
	}
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("calling bot %s failed: %w", c.bot, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.breaker.RecordFailure()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return nil, fmt.Errorf("bot %s returned %s", c.bot, resp.Status)
		}
		return nil, fmt.Errorf("bot %s returned %s: %s", c.bot, resp.Status, strings.TrimSpace(string(data)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("reading bot %s response failed: %w", c.bot, err)
	}
	c.breaker.RecordSuccess()
	return body, nil
}
