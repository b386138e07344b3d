package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

//go:generate sh -c "cd .. && go run ./cmd/swarmstat config schema > schema/swarmstat.embedded.schema.json"

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// StorageConfig selects where session records are read from.
type StorageConfig struct {
	Backend    string `yaml:"backend,omitempty" toml:"backend,omitempty" json:"backend,omitempty" jsonschema:"description=Session store backend,enum=file,enum=sqlite"`
	Root       string `yaml:"root,omitempty" toml:"root,omitempty" json:"root,omitempty" jsonschema:"description=opencode storage directory (default: ~/.local/share/opencode/storage)"`
	SQLitePath string `yaml:"sqlite_path,omitempty" toml:"sqlite_path,omitempty" json:"sqlite_path,omitempty" jsonschema:"description=SQLite snapshot database used by the sqlite backend and by import"`
}

// BuildConfig controls tree construction.
type BuildConfig struct {
	Parallel   bool `yaml:"parallel,omitempty" toml:"parallel,omitempty" json:"parallel,omitempty" jsonschema:"description=Build sibling subtrees concurrently"`
	MaxWorkers int  `yaml:"max_workers,omitempty" toml:"max_workers,omitempty" json:"max_workers,omitempty" jsonschema:"description=Concurrent sibling builds per parent (default: 4),minimum=1"`
}

// EstimatorConfig overrides the token estimation constants.
type EstimatorConfig struct {
	CharsPerToken     float64  `yaml:"chars_per_token,omitempty" toml:"chars_per_token,omitempty" json:"chars_per_token,omitempty" jsonschema:"description=Characters per token (default: 4)"`
	CharsPerDiffLine  float64  `yaml:"chars_per_diff_line,omitempty" toml:"chars_per_diff_line,omitempty" json:"chars_per_diff_line,omitempty" jsonschema:"description=Assumed characters per changed line (default: 40)"`
	BaseContextTokens int64    `yaml:"base_context_tokens,omitempty" toml:"base_context_tokens,omitempty" json:"base_context_tokens,omitempty" jsonschema:"description=Input tokens charged to a message without recorded usage (default: 500)"`
	ReadTools         []string `yaml:"read_tools,omitempty" toml:"read_tools,omitempty" json:"read_tools,omitempty" jsonschema:"description=Tool names checked for unscoped reads (default: read)"`
}

// WasteConfig overrides waste detection thresholds. Zero values keep the
// built-in defaults.
type WasteConfig struct {
	ReadOnlyAgents         []string `yaml:"read_only_agents,omitempty" toml:"read_only_agents,omitempty" json:"read_only_agents,omitempty" jsonschema:"description=Agents exempt from iteration and efficiency rules"`
	ContextAgent           string   `yaml:"context_agent,omitempty" toml:"context_agent,omitempty" json:"context_agent,omitempty" jsonschema:"description=Agent counted by the duplicate context rule"`
	AbandonedMaxMessages   int      `yaml:"abandoned_max_messages,omitempty" toml:"abandoned_max_messages,omitempty" json:"abandoned_max_messages,omitempty"`
	ExcessiveMessages      int      `yaml:"excessive_messages,omitempty" toml:"excessive_messages,omitempty" json:"excessive_messages,omitempty"`
	WastedMinMessages      int      `yaml:"wasted_min_messages,omitempty" toml:"wasted_min_messages,omitempty" json:"wasted_min_messages,omitempty"`
	LowEfficiencyRatio     float64  `yaml:"low_efficiency_ratio,omitempty" toml:"low_efficiency_ratio,omitempty" json:"low_efficiency_ratio,omitempty"`
	OutputHeavyMinTokens   int64    `yaml:"output_heavy_min_tokens,omitempty" toml:"output_heavy_min_tokens,omitempty" json:"output_heavy_min_tokens,omitempty"`
	LongRunning            string   `yaml:"long_running,omitempty" toml:"long_running,omitempty" json:"long_running,omitempty" jsonschema:"description=Duration after which a session is long running (e.g. 30m)"`
	DuplicateContextMax    int      `yaml:"duplicate_context_max,omitempty" toml:"duplicate_context_max,omitempty" json:"duplicate_context_max,omitempty"`
	ToolDominanceMinTokens int64    `yaml:"tool_dominance_min_tokens,omitempty" toml:"tool_dominance_min_tokens,omitempty" json:"tool_dominance_min_tokens,omitempty"`
	ToolDominanceShare     float64  `yaml:"tool_dominance_share,omitempty" toml:"tool_dominance_share,omitempty" json:"tool_dominance_share,omitempty" jsonschema:"maximum=1"`
	ExpensiveToolTokens    int64    `yaml:"expensive_tool_tokens,omitempty" toml:"expensive_tool_tokens,omitempty" json:"expensive_tool_tokens,omitempty"`
	MaxDelegationDepth     int      `yaml:"max_delegation_depth,omitempty" toml:"max_delegation_depth,omitempty" json:"max_delegation_depth,omitempty"`
	MaxHumanMessages       int      `yaml:"max_human_messages,omitempty" toml:"max_human_messages,omitempty" json:"max_human_messages,omitempty"`
}

// PlanningConfig lists extra globs for referenced planning files.
type PlanningConfig struct {
	Patterns []string `yaml:"patterns,omitempty" toml:"patterns,omitempty" json:"patterns,omitempty" jsonschema:"description=Extra patterns matched against referenced file paths"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty" jsonschema:"description=Listen address (default: 127.0.0.1:3847)"`
}

// WatchConfig configures live re-aggregation.
type WatchConfig struct {
	Interval string `yaml:"interval,omitempty" toml:"interval,omitempty" json:"interval,omitempty" jsonschema:"description=Rebuild interval (default: 5s)"`
	Debounce string `yaml:"debounce,omitempty" toml:"debounce,omitempty" json:"debounce,omitempty" jsonschema:"description=Quiet period after file events before rebuilding (default: 500ms)"`
}

// AgentsConfig locates opencode agent definitions for the model editor.
type AgentsConfig struct {
	Dir      string `yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty" jsonschema:"description=Agent definition directory (default: ~/.config/opencode/agent)"`
	Opencode string `yaml:"opencode,omitempty" toml:"opencode,omitempty" json:"opencode,omitempty" jsonschema:"description=opencode binary used to list models (default: opencode)"`
}

// Config is the root of swarmstat.yml.
type Config struct {
	Version   string           `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Storage   *StorageConfig   `yaml:"storage,omitempty" toml:"storage,omitempty" json:"storage,omitempty" jsonschema:"description=Session store settings"`
	Build     *BuildConfig     `yaml:"build,omitempty" toml:"build,omitempty" json:"build,omitempty" jsonschema:"description=Tree construction settings"`
	Estimator *EstimatorConfig `yaml:"estimator,omitempty" toml:"estimator,omitempty" json:"estimator,omitempty" jsonschema:"description=Token estimation constants"`
	Waste     *WasteConfig     `yaml:"waste,omitempty" toml:"waste,omitempty" json:"waste,omitempty" jsonschema:"description=Waste detection thresholds"`
	Planning  *PlanningConfig  `yaml:"planning,omitempty" toml:"planning,omitempty" json:"planning,omitempty" jsonschema:"description=Planning file recognition"`
	Server    *ServerConfig    `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty" jsonschema:"description=HTTP API settings"`
	Watch     *WatchConfig     `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty" jsonschema:"description=Live re-aggregation settings"`
	Agents    *AgentsConfig    `yaml:"agents,omitempty" toml:"agents,omitempty" json:"agents,omitempty" jsonschema:"description=Agent model editor settings"`

	// Extensions captures all other top-level keys (e.g. logging, tui).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`

	// Sources lists the files merged into this config, lowest precedence first.
	Sources []string `yaml:"-" toml:"-" json:"-" jsonschema:"-"`
}

// UnmarshalExtension decodes the extension stored under key into target.
// A missing key leaves target untouched.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
