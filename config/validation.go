package config

import (
	"fmt"
	"time"

	"github.com/grovetools/swarmstat/errors"
	"github.com/moby/patternmatcher"
)

// Validate checks the semantics the schema cannot express.
func (c *Config) Validate() error {
	if c.Storage != nil {
		switch c.Storage.Backend {
		case "", BackendFile, BackendSQLite:
		default:
			return errors.New(errors.ErrCodeValidationFailed,
				fmt.Sprintf("unknown storage backend '%s' (want file or sqlite)", c.Storage.Backend)).
				WithDetail("field", "storage.backend")
		}
	}

	if c.Build != nil && c.Build.MaxWorkers < 0 {
		return invalidField("build.max_workers", "must be positive")
	}

	if e := c.Estimator; e != nil {
		if e.CharsPerToken < 0 {
			return invalidField("estimator.chars_per_token", "must be positive")
		}
		if e.CharsPerDiffLine < 0 {
			return invalidField("estimator.chars_per_diff_line", "must be positive")
		}
		if e.BaseContextTokens < 0 {
			return invalidField("estimator.base_context_tokens", "must be positive")
		}
	}

	if w := c.Waste; w != nil {
		if err := validateWaste(w); err != nil {
			return err
		}
	}

	if c.Planning != nil {
		if _, err := patternmatcher.New(c.Planning.Patterns); err != nil {
			return errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid planning pattern").
				WithDetail("field", "planning.patterns")
		}
	}

	if c.Watch != nil {
		if err := validateDuration("watch.interval", c.Watch.Interval); err != nil {
			return err
		}
		if err := validateDuration("watch.debounce", c.Watch.Debounce); err != nil {
			return err
		}
	}

	return nil
}

func validateWaste(w *WasteConfig) error {
	ints := map[string]int{
		"waste.abandoned_max_messages": w.AbandonedMaxMessages,
		"waste.excessive_messages":     w.ExcessiveMessages,
		"waste.wasted_min_messages":    w.WastedMinMessages,
		"waste.duplicate_context_max":  w.DuplicateContextMax,
		"waste.max_delegation_depth":   w.MaxDelegationDepth,
		"waste.max_human_messages":     w.MaxHumanMessages,
	}
	for field, v := range ints {
		if v < 0 {
			return invalidField(field, "must be positive")
		}
	}
	if w.OutputHeavyMinTokens < 0 || w.ToolDominanceMinTokens < 0 || w.ExpensiveToolTokens < 0 {
		return invalidField("waste", "token thresholds must be positive")
	}
	if w.LowEfficiencyRatio < 0 {
		return invalidField("waste.low_efficiency_ratio", "must be positive")
	}
	if w.ToolDominanceShare < 0 || w.ToolDominanceShare > 1 {
		return invalidField("waste.tool_dominance_share", "must be between 0 and 1")
	}
	return validateDuration("waste.long_running", w.LongRunning)
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidationFailed, fmt.Sprintf("%s: invalid duration '%s'", field, value)).
			WithDetail("field", field)
	}
	if d <= 0 {
		return invalidField(field, "must be positive")
	}
	return nil
}

func invalidField(field, reason string) *errors.SwarmError {
	return errors.New(errors.ErrCodeValidationFailed, fmt.Sprintf("%s %s", field, reason)).
		WithDetail("field", field)
}
