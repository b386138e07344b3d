package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxSessionListLimit caps a single session listing.
const MaxSessionListLimit = 1000

// JSONField stores a value as a JSON column.
type JSONField[T any] struct {
	Data T
}

func (j JSONField[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}

func (j *JSONField[T]) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONField", value)
	}

	if err := json.Unmarshal(b, &j.Data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Project is a storage namespace grouping the sessions of one working tree.
type Project struct {
	ID        string `json:"id"`
	Directory string `json:"directory,omitempty"`
	Sessions  int    `json:"sessions"`
	Live      bool   `json:"live,omitempty"`
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	RootsOnly bool   `json:"roots_only,omitempty"`
	Since     int64  `json:"since,omitempty"`
	Until     int64  `json:"until,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Validate checks the filter bounds.
func (f *SessionFilter) Validate() error {
	if f.Limit > MaxSessionListLimit {
		return fmt.Errorf("limit too large: %d, maximum allowed: %d", f.Limit, MaxSessionListLimit)
	}
	if f.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if f.Since != 0 && f.Until != 0 && f.Since > f.Until {
		return errors.New("since cannot be after until")
	}
	return nil
}

// Match reports whether s passes the filter. Limit is not considered.
func (f SessionFilter) Match(s Session) bool {
	if f.RootsOnly && !s.IsRoot() {
		return false
	}
	if f.Since != 0 && s.Created < f.Since {
		return false
	}
	if f.Until != 0 && s.Created > f.Until {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(s.Title), q) && !strings.Contains(strings.ToLower(s.ID), q) {
			return false
		}
	}
	return true
}

// Apply filters sessions, preserving order, and truncates to Limit.
func (f SessionFilter) Apply(sessions []Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if !f.Match(s) {
			continue
		}
		out = append(out, s)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
