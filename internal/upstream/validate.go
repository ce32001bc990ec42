package upstream

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"botdeck/internal/pkg/convert"
	"botdeck/internal/types"
)

// The backend is lenient about numeric fields (missing means zero) but the
// payload shape itself is checked before decode: a null or non-array body, or
// an entry without id/symbol/action, is a hard error.

func parseTradeArray(raw []byte) ([]types.Trade, error) {
	parsed, err := parseArray(raw, "trade history")
	if err != nil {
		return nil, err
	}
	var (
		out      []types.Trade
		itemErr  error
		position int
	)
	parsed.ForEach(func(_, item gjson.Result) bool {
		position++
		if !item.IsObject() {
			itemErr = fmt.Errorf("trade #%d is not an object", position)
			return false
		}
		id := convert.ToString(item.Get("id").Value())
		symbol := strings.TrimSpace(item.Get("symbol").String())
		action := strings.ToUpper(strings.TrimSpace(item.Get("action").String()))
		switch {
		case id == "":
			itemErr = fmt.Errorf("trade #%d missing id", position)
			return false
		case symbol == "":
			itemErr = fmt.Errorf("trade #%d missing symbol", position)
			return false
		case action == "":
			itemErr = fmt.Errorf("trade #%d missing action", position)
			return false
		}
		tr := types.Trade{
			ID:       id,
			Symbol:   symbol,
			Action:   types.TradeAction(action),
			Price:    convert.ToFloat64(item.Get("price").Value()),
			Quantity: convert.ToFloat64(item.Get("quantity").Value()),
		}
		if pl := item.Get("profit_loss_pct"); pl.Exists() && pl.Type != gjson.Null {
			pct := convert.ToFloat64(pl.Value())
			tr.ProfitLossPct = &pct
		}
		tr.ExecutedAt = parseTime(item.Get("executed_at").String())
		out = append(out, tr)
		return true
	})
	if itemErr != nil {
		return nil, itemErr
	}
	if out == nil {
		out = []types.Trade{}
	}
	return out, nil
}

func parsePositionArray(raw []byte) ([]types.Position, error) {
	parsed, err := parseArray(raw, "portfolio")
	if err != nil {
		return nil, err
	}
	var (
		out      []types.Position
		itemErr  error
		position int
	)
	parsed.ForEach(func(_, item gjson.Result) bool {
		position++
		if !item.IsObject() {
			itemErr = fmt.Errorf("position #%d is not an object", position)
			return false
		}
		id := convert.ToString(item.Get("id").Value())
		symbol := strings.TrimSpace(item.Get("symbol").String())
		if id == "" {
			itemErr = fmt.Errorf("position #%d missing id", position)
			return false
		}
		if symbol == "" {
			itemErr = fmt.Errorf("position #%d missing symbol", position)
			return false
		}
		out = append(out, types.Position{
			ID:             id,
			Symbol:         symbol,
			Quantity:       convert.ToFloat64(item.Get("quantity").Value()),
			EntryPrice:     convert.ToFloat64(item.Get("entry_price").Value()),
			CurrentPrice:   convert.ToFloat64(item.Get("current_price").Value()),
			TotalReturnPct: convert.ToFloat64(item.Get("total_return_pct").Value()),
			IsLive:         item.Get("is_live").Bool(),
			OpenedAt:       parseTime(item.Get("opened_at").String()),
		})
		return true
	})
	if itemErr != nil {
		return nil, itemErr
	}
	if out == nil {
		out = []types.Position{}
	}
	return out, nil
}

// parsePerformance maps the backend's partial performance object. Fields the
// enrichment recomputes are read normally; everything else lands in Extra so
// it survives augmentation.
func parsePerformance(raw []byte) (*types.Performance, error) {
	body := strings.TrimSpace(string(raw))
	if body == "" || body == "null" {
		return nil, nil
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("performance payload is not valid json")
	}
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("performance payload must be an object")
	}
	known := map[string]bool{
		"win_rate": true, "wins": true, "losses": true,
		"avg_win_pct": true, "avg_loss_pct": true,
		"risk_reward": true, "total_trades": true,
	}
	perf := &types.Performance{
		WinRate:     convert.ToFloat64(parsed.Get("win_rate").Value()),
		Wins:        int(parsed.Get("wins").Int()),
		Losses:      int(parsed.Get("losses").Int()),
		AvgWinPct:   convert.ToFloat64(parsed.Get("avg_win_pct").Value()),
		AvgLossPct:  convert.ToFloat64(parsed.Get("avg_loss_pct").Value()),
		RiskReward:  convert.ToFloat64(parsed.Get("risk_reward").Value()),
		TotalTrades: int(parsed.Get("total_trades").Int()),
	}
	parsed.ForEach(func(key, value gjson.Result) bool {
		if !known[key.String()] {
			if perf.Extra == nil {
				perf.Extra = make(map[string]any)
			}
			perf.Extra[key.String()] = value.Value()
		}
		return true
	})
	return perf, nil
}

func parseArray(raw []byte, what string) (gjson.Result, error) {
	body := strings.TrimSpace(string(raw))
	if body == "" || body == "null" {
		return gjson.Result{}, fmt.Errorf("%s payload is null, expected array", what)
	}
	if !gjson.Valid(body) {
		return gjson.Result{}, fmt.Errorf("%s payload is not valid json", what)
	}
	parsed := gjson.Parse(body)
	if !parsed.IsArray() {
		return gjson.Result{}, fmt.Errorf("%s payload must be an array", what)
	}
	return parsed, nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
