package config

import (
	"time"

	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/paths"
)

const (
	DefaultVersion    = "1.0"
	DefaultServerAddr = "127.0.0.1:3847"
	DefaultMaxWorkers = 4
	DefaultInterval   = 5 * time.Second
	DefaultDebounce   = 500 * time.Millisecond
	DefaultOpencode   = "opencode"
)

// Default returns a fully defaulted configuration, used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset section and field.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Root == "" {
		c.Storage.Root = paths.OpencodeStorageDir()
	}
	c.Storage.Root = expandPath(c.Storage.Root)
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = paths.SnapshotPath()
	}
	c.Storage.SQLitePath = expandPath(c.Storage.SQLitePath)

	if c.Build == nil {
		c.Build = &BuildConfig{}
	}
	if c.Build.MaxWorkers == 0 {
		c.Build.MaxWorkers = DefaultMaxWorkers
	}

	if c.Estimator == nil {
		c.Estimator = &EstimatorConfig{}
	}
	h := analysis.DefaultHeuristics()
	if c.Estimator.CharsPerToken == 0 {
		c.Estimator.CharsPerToken = h.CharsPerToken
	}
	if c.Estimator.CharsPerDiffLine == 0 {
		c.Estimator.CharsPerDiffLine = h.CharsPerDiffLine
	}
	if c.Estimator.BaseContextTokens == 0 {
		c.Estimator.BaseContextTokens = h.BaseContextTokens
	}
	if len(c.Estimator.ReadTools) == 0 {
		c.Estimator.ReadTools = h.ReadTools
	}

	if c.Waste == nil {
		c.Waste = &WasteConfig{}
	}
	if c.Planning == nil {
		c.Planning = &PlanningConfig{}
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	if c.Watch.Interval == "" {
		c.Watch.Interval = DefaultInterval.String()
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = DefaultDebounce.String()
	}

	if c.Agents == nil {
		c.Agents = &AgentsConfig{}
	}
	if c.Agents.Dir == "" {
		c.Agents.Dir = paths.OpencodeAgentDir()
	}
	c.Agents.Dir = expandPath(c.Agents.Dir)
	if c.Agents.Opencode == "" {
		c.Agents.Opencode = DefaultOpencode
	}
}

// Heuristics returns the estimator constants with overrides applied.
func (c *Config) Heuristics() analysis.Heuristics {
	h := analysis.DefaultHeuristics()
	if c.Estimator == nil {
		return h
	}
	if c.Estimator.CharsPerToken > 0 {
		h.CharsPerToken = c.Estimator.CharsPerToken
	}
	if c.Estimator.CharsPerDiffLine > 0 {
		h.CharsPerDiffLine = c.Estimator.CharsPerDiffLine
	}
	if c.Estimator.BaseContextTokens > 0 {
		h.BaseContextTokens = c.Estimator.BaseContextTokens
	}
	if len(c.Estimator.ReadTools) > 0 {
		h.ReadTools = c.Estimator.ReadTools
	}
	return h
}

// Policy returns the waste thresholds with overrides applied. Validate has
// already rejected an unparsable long_running value; a bad one here keeps
// the default.
func (c *Config) Policy() analysis.Policy {
	p := analysis.DefaultPolicy()
	w := c.Waste
	if w == nil {
		return p
	}
	if len(w.ReadOnlyAgents) > 0 {
		p.ReadOnlyAgents = w.ReadOnlyAgents
	}
	if w.ContextAgent != "" {
		p.ContextAgent = w.ContextAgent
	}
	setInt(&p.AbandonedMaxMessages, w.AbandonedMaxMessages)
	setInt(&p.ExcessiveMessages, w.ExcessiveMessages)
	setInt(&p.WastedMinMessages, w.WastedMinMessages)
	setInt(&p.DuplicateContextMax, w.DuplicateContextMax)
	setInt(&p.MaxDelegationDepth, w.MaxDelegationDepth)
	setInt(&p.MaxHumanMessages, w.MaxHumanMessages)
	setInt64(&p.OutputHeavyMinTokens, w.OutputHeavyMinTokens)
	setInt64(&p.ToolDominanceMinTokens, w.ToolDominanceMinTokens)
	setInt64(&p.ExpensiveToolTokens, w.ExpensiveToolTokens)
	if w.LowEfficiencyRatio > 0 {
		p.LowEfficiencyRatio = w.LowEfficiencyRatio
	}
	if w.ToolDominanceShare > 0 {
		p.ToolDominanceShare = w.ToolDominanceShare
	}
	if w.LongRunning != "" {
		if d, err := time.ParseDuration(w.LongRunning); err == nil && d > 0 {
			p.LongRunning = d
		}
	}
	return p
}

// PlanningPatterns returns the extra planning globs.
func (c *Config) PlanningPatterns() []string {
	if c.Planning == nil {
		return nil
	}
	return c.Planning.Patterns
}

// WatchInterval returns the rebuild interval.
func (c *Config) WatchInterval() time.Duration {
	if c.Watch == nil {
		return DefaultInterval
	}
	return parseDurationOr(c.Watch.Interval, DefaultInterval)
}

// WatchDebounce returns the file event debounce window.
func (c *Config) WatchDebounce() time.Duration {
	if c.Watch == nil {
		return DefaultDebounce
	}
	return parseDurationOr(c.Watch.Debounce, DefaultDebounce)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setInt64(dst *int64, v int64) {
	if v > 0 {
		*dst = v
	}
}
