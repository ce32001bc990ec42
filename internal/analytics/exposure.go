package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"botdeck/internal/types"
)

// SymbolExposures groups open positions by symbol. The summed return column
// is accumulated in decimal so long position lists do not drift; the average
// stays float64 like every other percentage served by the API.
func SymbolExposures(positions []types.Position) []types.SymbolExposure {
	if len(positions) == 0 {
		return []types.SymbolExposure{}
	}
	type bucket struct {
		count int
		live  int
		sum   decimal.Decimal
	}
	buckets := make(map[string]*bucket)
	for i := range positions {
		b := buckets[positions[i].Symbol]
		if b == nil {
			b = &bucket{}
			buckets[positions[i].Symbol] = b
		}
		b.count++
		if positions[i].IsLive {
			b.live++
		}
		b.sum = b.sum.Add(decimal.NewFromFloat(positions[i].TotalReturnPct))
	}
	out := make([]types.SymbolExposure, 0, len(buckets))
	for symbol, b := range buckets {
		avg, _ := b.sum.Div(decimal.NewFromInt(int64(b.count))).Float64()
		out = append(out, types.SymbolExposure{
			Symbol:       symbol,
			Positions:    b.count,
			LiveCount:    b.live,
			SumReturnPct: b.sum.String(),
			AvgReturnPct: avg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
