package analytics

import (
	"math"

	"botdeck/internal/types"
)

// EnrichPerformance recomputes the aggregate statistics over everything a bot
// has touched: closed trades plus currently open positions. Fields the
// computation does not own (perf.Extra and, on empty input, WinRate) pass
// through from perf unchanged; a nil perf means start from a zero value.
//
// A missing profit_loss_pct counts as zero. Zero-return items are neutral:
// they raise TotalTrades but belong to neither wins nor losses.
func EnrichPerformance(perf *types.Performance, completed []types.Trade, open []types.Position) types.Performance {
	var out types.Performance
	if perf != nil {
		out = *perf
	}

	pcts := make([]float64, 0, len(completed)+len(open))
	for i := range completed {
		var pct float64
		if completed[i].ProfitLossPct != nil {
			pct = *completed[i].ProfitLossPct
		}
		pcts = append(pcts, pct)
	}
	for i := range open {
		pcts = append(pcts, open[i].TotalReturnPct)
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, pct := range pcts {
		switch {
		case pct > 0:
			wins++
			winSum += pct
		case pct < 0:
			losses++
			lossSum += -pct
		}
	}

	out.Wins = wins
	out.Losses = losses
	out.TotalTrades = len(pcts)
	if len(pcts) > 0 {
		out.WinRate = float64(wins) / float64(len(pcts)) * 100
	}
	out.AvgWinPct = 0
	if wins > 0 {
		out.AvgWinPct = winSum / float64(wins)
	}
	out.AvgLossPct = 0
	if losses > 0 {
		out.AvgLossPct = lossSum / float64(losses)
	}
	switch {
	case out.AvgLossPct > 0:
		out.RiskReward = out.AvgWinPct / out.AvgLossPct
	case out.AvgWinPct > 0:
		out.RiskReward = math.Inf(1)
	default:
		out.RiskReward = 0
	}
	return out
}
