// Package bots loads the bot profile file (which upstream engine serves each
// bot, how to reach it) and keeps it hot-reloadable, so adding a bot or
// rotating a token does not need a restart.
package bots

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"

	"botdeck/internal/logger"
)

// Profile describes one managed bot's upstream.
type Profile struct {
	Name            string `mapstructure:"-" yaml:"-"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	APIToken        string `mapstructure:"api_token" yaml:"api_token"`
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`
	Live            bool   `mapstructure:"live" yaml:"live"`
	RefreshInterval string `mapstructure:"refresh_interval" yaml:"refresh_interval"`
}

type fileConfig struct {
	Bots map[string]Profile `mapstructure:"bots"`
}

// Snapshot is an immutable view of the registered profiles.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Profiles map[string]Profile
}

// Names returns registered bot names sorted.
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

const profileSchema = `{
  "type": "object",
  "properties": {
    "base_url": {"type": "string", "minLength": 1},
    "api_token": {"type": "string"},
    "username": {"type": "string"},
    "password": {"type": "string"},
    "live": {"type": "boolean"},
    "refresh_interval": {"type": "string"}
  },
  "required": ["base_url"]
}`

// Registry watches the bots file and exposes validated profiles.
type Registry struct {
	path   string
	v      *viper.Viper
	schema *jsonschema.Schema

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bot registry requires path")
	}
	schema, err := jsonschema.CompileString("bot_profile.json", profileSchema)
	if err != nil {
		return nil, fmt.Errorf("compile bot profile schema failed: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read bots file failed: %w", err)
	}
	r := &Registry{path: path, v: v, schema: schema}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("bots reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current profile set.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Profile looks up one bot by name.
func (r *Registry) Profile(name string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Profiles[strings.TrimSpace(name)]
	return p, ok
}

// OnChange registers a reload listener.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	if err := r.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read bots file failed: %w", err)
	}
	var fc fileConfig
	if err := r.v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("parse bots file failed: %w", err)
	}
	if len(fc.Bots) == 0 {
		return fmt.Errorf("bots file %s declares no bots", r.path)
	}
	profiles := make(map[string]Profile, len(fc.Bots))
	for name, p := range fc.Bots {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		raw := r.v.GetStringMap("bots." + name)
		if err := r.schema.Validate(normalizeForSchema(raw)); err != nil {
			return fmt.Errorf("bot %q profile invalid: %w", name, err)
		}
		p.Name = name
		profiles[name] = p
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Profiles: profiles,
	}
	r.mu.Unlock()
	logger.Infof("bots: loaded %d profiles from %s", len(profiles), r.path)
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	listeners := append([]ChangeListener(nil), r.listeners...)
	snap := cloneSnapshot(r.snapshot)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := Snapshot{Version: s.Version, LoadedAt: s.LoadedAt,
		Profiles: make(map[string]Profile, len(s.Profiles))}
	for k, v := range s.Profiles {
		out.Profiles[k] = v
	}
	return out
}

// normalizeForSchema converts viper's map shapes into plain JSON-compatible
// values the schema validator accepts.
func normalizeForSchema(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeForSchema(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeForSchema(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return t
	}
}
