package app

import (
	"fmt"
	"time"

	"botdeck/internal/bots"
	"botdeck/internal/config"
	"botdeck/internal/dashboard"
	"botdeck/internal/logger"
	"botdeck/internal/scheduler"
	"botdeck/internal/upstream"
)

func buildFetchers(snap bots.Snapshot, cfg config.UpstreamConfig) (map[string]dashboard.Fetcher, map[string]bool, error) {
	fetchers := make(map[string]dashboard.Fetcher, len(snap.Profiles))
	live := make(map[string]bool, len(snap.Profiles))
	for name, profile := range snap.Profiles {
		client, err := upstream.NewClient(profile, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("building client for bot %s failed: %w", name, err)
		}
		fetchers[name] = client
		live[name] = profile.Live
	}
	return fetchers, live, nil
}

// applyRegistrySnapshot swaps the service's clients after a profile reload.
// A snapshot that fails to build keeps the previous client set running.
func applyRegistrySnapshot(svc *dashboard.Service, snap bots.Snapshot, cfg config.UpstreamConfig) bool {
	fetchers, live, err := buildFetchers(snap, cfg)
	if err != nil {
		logger.Errorf("app: registry reload ignored: %v", err)
		return false
	}
	svc.SetFetchers(fetchers, live)
	logger.Infof("app: bot set updated, %d bots active (version=%d)", len(fetchers), snap.Version)
	return true
}

// resolveInterval picks a bot's refresh cadence: its profile's
// refresh_interval when set and valid, the app-wide interval otherwise.
func resolveInterval(profile bots.Profile, fallback time.Duration) time.Duration {
	if profile.RefreshInterval == "" {
		return fallback
	}
	d, ok := scheduler.ParseIntervalDuration(profile.RefreshInterval)
	if !ok {
		logger.Warnf("bot %s: invalid refresh_interval %q, using app default %s",
			profile.Name, profile.RefreshInterval, fallback)
		return fallback
	}
	return d
}
