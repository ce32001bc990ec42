package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botdeck/internal/bots"
	"botdeck/internal/config"
	"botdeck/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(bots.Profile{Name: "quant", BaseURL: srv.URL, APIToken: "tok"},
		config.UpstreamConfig{TimeoutSeconds: 5, BreakerThreshold: 2, BreakerCooldownSeconds: 60})
	require.NoError(t, err)
	return c
}

func TestClientListTrades(t *testing.T) {
	var gotPath, gotAuth, gotReqID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`[
			{"id": 7, "symbol": "AAPL", "action": "sell", "profit_loss_pct": 4.2, "executed_at": "2026-08-30T10:00:00Z"},
			{"id": "8", "symbol": "AAPL", "action": "BUY", "profit_loss_pct": null}
		]`))
	}))

	trades, err := c.ListTrades(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/quant/actions-all", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotReqID)

	require.Len(t, trades, 2)
	assert.Equal(t, "7", trades[0].ID, "integer ids are stringified")
	assert.Equal(t, types.ActionSell, trades[0].Action, "action is upper-cased")
	require.NotNil(t, trades[0].ProfitLossPct)
	assert.Equal(t, 4.2, *trades[0].ProfitLossPct)
	assert.False(t, trades[0].ExecutedAt.IsZero())
	assert.Nil(t, trades[1].ProfitLossPct, "null pct stays nil")
}

func TestClientListPositions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quant/simulated-portfolio", r.URL.Path)
		w.Write([]byte(`[{"id": "p1", "symbol": "MSFT", "total_return_pct": "-1.5", "is_live": true}]`))
	}))

	positions, err := c.ListPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, -1.5, positions[0].TotalReturnPct, "numeric strings are coerced")
	assert.True(t, positions[0].IsLive)
}

func TestClientGetPerformance(t *testing.T) {
	t.Run("partial object with extras", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"win_rate": 58.3, "sharpe": 1.4}`))
		}))
		perf, err := c.GetPerformance(context.Background())
		require.NoError(t, err)
		require.NotNil(t, perf)
		assert.Equal(t, 58.3, perf.WinRate)
		assert.Equal(t, 1.4, perf.Extra["sharpe"])
	})

	t.Run("null body means no performance yet", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`null`))
		}))
		perf, err := c.GetPerformance(context.Background())
		require.NoError(t, err)
		assert.Nil(t, perf)
	})
}

func TestClientTriggerUpdate(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"ok"}`))
	}))

	require.NoError(t, c.TriggerUpdate(context.Background()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/quant/update", gotPath)
}

func TestClientRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"null where array expected", `null`, "expected array"},
		{"object where array expected", `{"id": 1}`, "must be an array"},
		{"trade without id", `[{"symbol": "AAPL", "action": "BUY"}]`, "missing id"},
		{"trade without symbol", `[{"id": 1, "action": "BUY"}]`, "missing symbol"},
		{"trade without action", `[{"id": 1, "symbol": "AAPL"}]`, "missing action"},
		{"not json", `<html>`, "not valid json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			_, err := c.ListTrades(context.Background())
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestClientErrorStatusIncludesBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine rebuilding", http.StatusServiceUnavailable)
	}))
	_, err := c.ListTrades(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "engine rebuilding")
}

func TestClientBreakerOpensAfterRepeatedFailures(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	ctx := context.Background()
	_, err := c.ListTrades(ctx)
	require.Error(t, err)
	_, err = c.ListTrades(ctx)
	require.Error(t, err)

	// threshold is 2, so the third call never reaches the server
	_, err = c.ListTrades(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
