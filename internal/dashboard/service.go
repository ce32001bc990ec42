// Package dashboard aggregates every managed bot's upstream state into the
// display-ready snapshots the HTTP API serves.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"botdeck/internal/analytics"
	"botdeck/internal/logger"
	"botdeck/internal/types"
)

// ErrUnknownBot is returned for bot names not in the registry.
var ErrUnknownBot = errors.New("unknown bot")

// Fetcher is the upstream surface the service needs per bot.
type Fetcher interface {
	Bot() string
	ListTrades(ctx context.Context) ([]types.Trade, error)
	ListPositions(ctx context.Context) ([]types.Position, error)
	GetPerformance(ctx context.Context) (*types.Performance, error)
	TriggerUpdate(ctx context.Context) error
}

// BotStatus is the /api/bots listing entry.
type BotStatus struct {
	Bot        string    `json:"bot"`
	Live       bool      `json:"live"`
	HasData    bool      `json:"has_data"`
	FetchedAt  time.Time `json:"fetched_at,omitempty"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
}

// Service owns one Fetcher per bot plus the snapshot cache. Snapshots are
// replaced wholesale on refresh; readers always see the last complete one.
type Service struct {
	mu         sync.RWMutex
	fetchers   map[string]Fetcher
	liveFlags  map[string]bool
	snapshots  map[string]types.BotSnapshot
	countdowns map[string]func() time.Duration
}

func NewService() *Service {
	return &Service{
		fetchers:   make(map[string]Fetcher),
		liveFlags:  make(map[string]bool),
		snapshots:  make(map[string]types.BotSnapshot),
		countdowns: make(map[string]func() time.Duration),
	}
}

// SetFetchers swaps the managed bot set; stale snapshots for removed bots are
// dropped. Called at startup and again on registry hot reload.
func (s *Service) SetFetchers(fetchers map[string]Fetcher, liveFlags map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers = make(map[string]Fetcher, len(fetchers))
	s.liveFlags = make(map[string]bool, len(liveFlags))
	for name, f := range fetchers {
		s.fetchers[name] = f
	}
	for name, live := range liveFlags {
		s.liveFlags[name] = live
	}
	for name := range s.snapshots {
		if _, ok := s.fetchers[name]; !ok {
			delete(s.snapshots, name)
		}
	}
	for name := range s.countdowns {
		if _, ok := s.fetchers[name]; !ok {
			delete(s.countdowns, name)
		}
	}
}

// SetCountdown wires one bot's refresh-scheduler countdown into API
// responses. Each bot runs on its own cadence.
func (s *Service) SetCountdown(bot string, fn func() time.Duration) {
	s.mu.Lock()
	if fn == nil {
		delete(s.countdowns, bot)
	} else {
		s.countdowns[bot] = fn
	}
	s.mu.Unlock()
}

// NextUpdateIn reports the time until the bot's next scheduled refresh.
func (s *Service) NextUpdateIn(bot string) time.Duration {
	s.mu.RLock()
	fn := s.countdowns[bot]
	s.mu.RUnlock()
	if fn == nil {
		return 0
	}
	return fn()
}

// Bots lists registered bots with snapshot freshness, sorted by name.
func (s *Service) Bots() []BotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BotStatus, 0, len(s.fetchers))
	for name := range s.fetchers {
		status := BotStatus{Bot: name, Live: s.liveFlags[name]}
		if snap, ok := s.snapshots[name]; ok {
			status.HasData = true
			status.FetchedAt = snap.FetchedAt
			status.SnapshotID = snap.SnapshotID
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bot < out[j].Bot })
	return out
}

// Snapshot returns the cached view for one bot.
func (s *Service) Snapshot(bot string) (types.BotSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.fetchers[bot]; !ok {
		return types.BotSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownBot, bot)
	}
	snap, ok := s.snapshots[bot]
	if !ok {
		return types.BotSnapshot{Bot: bot, Trades: []types.Trade{},
			Positions: []types.Position{}, Exposure: []types.SymbolExposure{}}, nil
	}
	return snap, nil
}

// Refresh fetches one bot's trades, positions, and partial performance
// concurrently, derives the display views, and replaces the cached snapshot.
func (s *Service) Refresh(ctx context.Context, bot string) error {
	s.mu.RLock()
	fetcher, ok := s.fetchers[bot]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBot, bot)
	}

	var (
		trades    []types.Trade
		positions []types.Position
		perf      *types.Performance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trades, err = fetcher.ListTrades(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		positions, err = fetcher.ListPositions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		perf, err = fetcher.GetPerformance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refreshing bot %s failed: %w", bot, err)
	}

	completed := make([]types.Trade, 0, len(trades))
	for i := range trades {
		if trades[i].ProfitLossPct != nil {
			completed = append(completed, trades[i])
		}
	}
	snap := types.BotSnapshot{
		Bot:         bot,
		SnapshotID:  uuid.NewString(),
		FetchedAt:   time.Now().UTC(),
		Trades:      analytics.GroupTrades(trades),
		Positions:   positions,
		Performance: analytics.EnrichPerformance(perf, completed, positions),
		Exposure:    analytics.SymbolExposures(positions),
	}

	s.mu.Lock()
	s.snapshots[bot] = snap
	s.mu.Unlock()
	logger.Debugf("dashboard: refreshed bot=%s trades=%d positions=%d", bot, len(trades), len(positions))
	return nil
}

// RefreshAll refreshes every bot concurrently. One failing bot does not stop
// the rest; the first error is returned after all fetches settle.
func (s *Service) RefreshAll(ctx context.Context) error {
	s.mu.RLock()
	names := make([]string, 0, len(s.fetchers))
	for name := range s.fetchers {
		names = append(names, name)
	}
	s.mu.RUnlock()

	var (
		errMu    sync.Mutex
		firstErr error
	)
	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := s.Refresh(ctx, name); err != nil {
				logger.Warnf("dashboard: %v", err)
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return firstErr
}

// ForceRefresh optionally pokes the upstream engine before refetching.
func (s *Service) ForceRefresh(ctx context.Context, bot string, triggerEngine bool) error {
	s.mu.RLock()
	fetcher, ok := s.fetchers[bot]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBot, bot)
	}
	if triggerEngine {
		if err := fetcher.TriggerUpdate(ctx); err != nil {
			return fmt.Errorf("triggering engine update for %s failed: %w", bot, err)
		}
	}
	return s.Refresh(ctx, bot)
}
