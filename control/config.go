// control/config.go
// Author: lennyferrell
//
// Thread-safe configuration store with dynamic update and hot-reload
// propagation.

package control

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// Get fetches a single value, returning (value, exists).
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// SetConfig merges new values and dispatches reload if needed.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		go fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// LoadTOMLFile reads path and merges its top-level table into the store,
// firing reload listeners.
func (cs *ConfigStore) LoadTOMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	cs.SetConfig(raw)
	return nil
}

// PoolSettings is the pool-facing view of a ConfigStore.
type PoolSettings struct {
	MaxTotal        int
	MaxIdleTime     time.Duration
	SweepInterval   time.Duration
	DialTimeout     time.Duration
	ExecutorWorkers int
}

// PoolSettings extracts typed pool configuration from the store. Missing or
// malformed keys keep their zero value; the pool applies its own defaults.
func (cs *ConfigStore) PoolSettings() PoolSettings {
	snap := cs.GetSnapshot()
	return PoolSettings{
		MaxTotal:        asInt(snap["max_total"]),
		MaxIdleTime:     asDuration(snap["max_idle_time"]),
		SweepInterval:   asDuration(snap["sweep_interval"]),
		DialTimeout:     asDuration(snap["dial_timeout"]),
		ExecutorWorkers: asInt(snap["executor_workers"]),
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asDuration(v any) time.Duration {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
