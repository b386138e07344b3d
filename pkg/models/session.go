// Package models holds the record and result types shared by the store, the
// aggregation engine and the presentation layers.
//
// Timestamps are Unix milliseconds, matching the on-disk opencode records.
// Zero means "not recorded".
package models

import (
	"encoding/json"
	"fmt"
)

// Session is one unit of agent work. Sessions with a ParentID were spawned
// by another session and form a forest per project.
type Session struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectID,omitempty"`
	ParentID  string          `json:"parentID,omitempty"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug,omitempty"`
	Directory string          `json:"directory,omitempty"`
	Created   int64           `json:"created,omitempty"`
	Updated   int64           `json:"updated,omitempty"`
	Summary   *SessionSummary `json:"summary,omitempty"`
}

// SessionSummary is the change summary opencode stores alongside a session.
type SessionSummary struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Files     int `json:"files"`
}

// IsRoot reports whether the session has no parent.
func (s Session) IsRoot() bool {
	return s.ParentID == ""
}

// MessageRole identifies who authored a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// UnknownAgent is attributed to messages that carry no agent name.
const UnknownAgent = "unknown"

// Message is a single exchange inside a session.
type Message struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"sessionID"`
	Role       MessageRole `json:"role"`
	Agent      string      `json:"agent,omitempty"`
	ModelID    string      `json:"model,omitempty"`
	ProviderID string      `json:"provider,omitempty"`
	Created    int64       `json:"created,omitempty"`
	Completed  int64       `json:"completed,omitempty"`
	Tokens     *TokenUsage `json:"tokens,omitempty"`
	Cost       float64     `json:"cost,omitempty"`
	Finish     string      `json:"finish,omitempty"`
	Title      string      `json:"title,omitempty"`
	Diffs      []Diff      `json:"diffs,omitempty"`
}

// AgentName returns the attributed agent, falling back to UnknownAgent.
func (m Message) AgentName() string {
	if m.Agent == "" {
		return UnknownAgent
	}
	return m.Agent
}

// ModelKey returns "provider/model", or "" when no model was recorded.
func (m Message) ModelKey() string {
	if m.ModelID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", m.ProviderID, m.ModelID)
}

// TokenUsage is the usage recorded by the provider for one message.
type TokenUsage struct {
	Input     int64       `json:"input"`
	Output    int64       `json:"output"`
	Reasoning int64       `json:"reasoning,omitempty"`
	Cache     *CacheUsage `json:"cache,omitempty"`
}

type CacheUsage struct {
	Read  int64 `json:"read"`
	Write int64 `json:"write"`
}

// Diff is one file change attached to a message.
type Diff struct {
	File      string `json:"file"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status,omitempty"`
}

// RawToolRecord is a message part as stored. Only parts of type "tool"
// describe tool invocations; the rest are text, reasoning or step markers.
type RawToolRecord struct {
	ID        string          `json:"id"`
	MessageID string          `json:"messageID"`
	Type      string          `json:"type"`
	Tool      string          `json:"tool,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Start     int64           `json:"start,omitempty"`
	End       int64           `json:"end,omitempty"`
}

// PartTypeTool marks a part that records a tool invocation.
const PartTypeTool = "tool"
