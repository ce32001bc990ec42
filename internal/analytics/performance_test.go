package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"botdeck/internal/types"
)

func closedTrade(id string, pct float64) types.Trade {
	return types.Trade{ID: id, Symbol: "AAPL", Action: types.ActionSell, ProfitLossPct: &pct}
}

func openPos(id string, pct float64) types.Position {
	return types.Position{ID: id, Symbol: "AAPL", TotalReturnPct: pct}
}

func TestEnrichPerformance(t *testing.T) {
	t.Run("mixed wins losses and neutral", func(t *testing.T) {
		completed := []types.Trade{closedTrade("1", 10), closedTrade("2", -5)}
		open := []types.Position{openPos("p1", 0)}

		got := EnrichPerformance(nil, completed, open)

		assert.Equal(t, 1, got.Wins)
		assert.Equal(t, 1, got.Losses)
		assert.Equal(t, 3, got.TotalTrades)
		assert.InDelta(t, 33.33, got.WinRate, 0.01)
		assert.Equal(t, 10.0, got.AvgWinPct)
		assert.Equal(t, 5.0, got.AvgLossPct)
		assert.Equal(t, 2.0, got.RiskReward)
	})

	t.Run("all wins gives infinite risk reward", func(t *testing.T) {
		got := EnrichPerformance(nil, []types.Trade{closedTrade("1", 20)}, nil)

		assert.Equal(t, 1, got.Wins)
		assert.Equal(t, 0, got.Losses)
		assert.True(t, math.IsInf(got.RiskReward, 1))
		assert.Equal(t, 100.0, got.WinRate)
	})

	t.Run("losses without wins gives zero risk reward", func(t *testing.T) {
		got := EnrichPerformance(nil, []types.Trade{closedTrade("1", -4), closedTrade("2", -6)}, nil)

		assert.Equal(t, 0, got.Wins)
		assert.Equal(t, 2, got.Losses)
		assert.Equal(t, 5.0, got.AvgLossPct)
		assert.Equal(t, 0.0, got.RiskReward)
		assert.Equal(t, 0.0, got.WinRate)
	})

	t.Run("empty input keeps prior win rate", func(t *testing.T) {
		prior := &types.Performance{WinRate: 61.5, Extra: map[string]any{"sharpe": 1.2}}

		got := EnrichPerformance(prior, nil, nil)

		assert.Equal(t, 61.5, got.WinRate)
		assert.Equal(t, 0, got.TotalTrades)
		assert.Equal(t, 0, got.Wins)
		assert.Equal(t, 0, got.Losses)
		assert.Equal(t, 0.0, got.AvgWinPct)
		assert.Equal(t, 0.0, got.AvgLossPct)
		assert.Equal(t, 0.0, got.RiskReward)
		assert.Equal(t, 1.2, got.Extra["sharpe"])
	})

	t.Run("nil perf and empty input is all zeros", func(t *testing.T) {
		got := EnrichPerformance(nil, nil, nil)
		assert.Equal(t, types.Performance{}, got)
	})

	t.Run("missing pct counts as neutral zero", func(t *testing.T) {
		completed := []types.Trade{
			{ID: "1", Symbol: "AAPL", Action: types.ActionSell}, // no pct
			closedTrade("2", 8),
		}
		got := EnrichPerformance(nil, completed, nil)

		assert.Equal(t, 1, got.Wins)
		assert.Equal(t, 0, got.Losses)
		assert.Equal(t, 2, got.TotalTrades)
		assert.Equal(t, 50.0, got.WinRate)
	})

	t.Run("stale fields are overwritten not merged", func(t *testing.T) {
		prior := &types.Performance{Wins: 99, Losses: 99, TotalTrades: 99, RiskReward: 9}

		got := EnrichPerformance(prior, []types.Trade{closedTrade("1", 3)}, nil)

		assert.Equal(t, 1, got.Wins)
		assert.Equal(t, 0, got.Losses)
		assert.Equal(t, 1, got.TotalTrades)
	})
}

func TestEnrichPerformanceBounds(t *testing.T) {
	completed := []types.Trade{
		closedTrade("1", 12.5), closedTrade("2", -3), closedTrade("3", 0),
		closedTrade("4", 7), closedTrade("5", -1.5),
	}
	open := []types.Position{openPos("p1", 2.2), openPos("p2", -0.4), openPos("p3", 0)}

	got := EnrichPerformance(nil, completed, open)

	assert.LessOrEqual(t, got.Wins+got.Losses, got.TotalTrades)
	assert.GreaterOrEqual(t, got.WinRate, 0.0)
	assert.LessOrEqual(t, got.WinRate, 100.0)
	assert.Equal(t, len(completed)+len(open), got.TotalTrades)
}

func TestEnrichPerformanceOrderInsensitive(t *testing.T) {
	completed := []types.Trade{
		closedTrade("1", 10), closedTrade("2", -5), closedTrade("3", 3.3),
		closedTrade("4", -2.8), closedTrade("5", 0),
	}
	open := []types.Position{openPos("p1", 1.1), openPos("p2", -7)}

	want := EnrichPerformance(nil, completed, open)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffledTrades := append([]types.Trade(nil), completed...)
		shuffledOpen := append([]types.Position(nil), open...)
		r.Shuffle(len(shuffledTrades), func(a, b int) {
			shuffledTrades[a], shuffledTrades[b] = shuffledTrades[b], shuffledTrades[a]
		})
		r.Shuffle(len(shuffledOpen), func(a, b int) {
			shuffledOpen[a], shuffledOpen[b] = shuffledOpen[b], shuffledOpen[a]
		})

		got := EnrichPerformance(nil, shuffledTrades, shuffledOpen)

		assert.Equal(t, want.Wins, got.Wins)
		assert.Equal(t, want.Losses, got.Losses)
		assert.InDelta(t, want.AvgWinPct, got.AvgWinPct, 1e-9)
		assert.InDelta(t, want.AvgLossPct, got.AvgLossPct, 1e-9)
		assert.InDelta(t, want.WinRate, got.WinRate, 1e-9)
	}
}
