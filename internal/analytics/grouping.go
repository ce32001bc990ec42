// Package analytics holds the pure derivations the dashboard serves: trade
// pairing for display, performance aggregation, and exposure rollups. All
// functions are stateless and safe to call concurrently.
package analytics

import "botdeck/internal/types"

// GroupTrades reorders a trade history so every SELL is immediately followed
// by the BUY that opened the same symbol. The match is the first BUY of that
// symbol appearing later in the input that has not already been paired.
// Output is a permutation of the input: unpaired SELLs stand alone, BUYs that
// were never chosen keep their natural position, and a BUY pairs with at most
// one SELL.
func GroupTrades(trades []types.Trade) []types.Trade {
	if len(trades) == 0 {
		return []types.Trade{}
	}
	out := make([]types.Trade, 0, len(trades))
	placed := make(map[string]bool, len(trades))
	for i := range trades {
		if placed[trades[i].ID] {
			continue
		}
		out = append(out, trades[i])
		if trades[i].Action != types.ActionSell {
			continue
		}
		for j := i + 1; j < len(trades); j++ {
			if trades[j].Action != types.ActionBuy {
				continue
			}
			if trades[j].Symbol != trades[i].Symbol || placed[trades[j].ID] {
				continue
			}
			out = append(out, trades[j])
			placed[trades[j].ID] = true
			break
		}
	}
	return out
}
