package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botdeck/internal/bots"
	"botdeck/internal/config"
)

func TestResolveInterval(t *testing.T) {
	fallback := time.Minute
	cases := []struct {
		name    string
		profile bots.Profile
		want    time.Duration
	}{
		{"profile interval wins", bots.Profile{Name: "quant", RefreshInterval: "30s"}, 30 * time.Second},
		{"hourly profile interval", bots.Profile{Name: "lutz", RefreshInterval: "2h"}, 2 * time.Hour},
		{"unset falls back to app default", bots.Profile{Name: "flipper"}, fallback},
		{"invalid falls back to app default", bots.Profile{Name: "ditz", RefreshInterval: "soon"}, fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveInterval(tc.profile, fallback))
		})
	}
}

func TestBuildFetchers(t *testing.T) {
	snap := bots.Snapshot{Profiles: map[string]bots.Profile{
		"quant":  {Name: "quant", BaseURL: "http://engine:9001"},
		"trader": {Name: "trader", BaseURL: "http://engine:9002", Live: true},
	}}

	fetchers, live, err := buildFetchers(snap, config.UpstreamConfig{TimeoutSeconds: 5})
	require.NoError(t, err)
	require.Len(t, fetchers, 2)
	assert.Equal(t, "quant", fetchers["quant"].Bot())
	assert.False(t, live["quant"])
	assert.True(t, live["trader"])
}

func TestBuildFetchersRejectsEmptyBaseURL(t *testing.T) {
	snap := bots.Snapshot{Profiles: map[string]bots.Profile{
		"quant": {Name: "quant"},
	}}
	_, _, err := buildFetchers(snap, config.UpstreamConfig{})
	assert.ErrorContains(t, err, "quant")
}
