package storage

import (
	"bytes"
	"encoding/json"

	"github.com/grovetools/swarmstat/pkg/models"
)

// The raw shapes below mirror the JSON documents opencode writes under its
// storage directory. Only the fields the aggregation needs are decoded.

type recordTime struct {
	Created   int64 `json:"created"`
	Updated   int64 `json:"updated"`
	Completed int64 `json:"completed"`
	Start     int64 `json:"start"`
	End       int64 `json:"end"`
}

type rawSession struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectID"`
	ParentID  string          `json:"parentID"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Directory string          `json:"directory"`
	Time      recordTime      `json:"time"`
	Summary   json.RawMessage `json:"summary"`
}

type rawMessage struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"sessionID"`
	Role       string             `json:"role"`
	Agent      string             `json:"agent"`
	Mode       string             `json:"mode"`
	ModelID    string             `json:"modelID"`
	ProviderID string             `json:"providerID"`
	Time       recordTime         `json:"time"`
	Tokens     *models.TokenUsage `json:"tokens"`
	Cost       float64            `json:"cost"`
	Finish     string             `json:"finish"`
	Summary    json.RawMessage    `json:"summary"`
}

// messageSummary is present on user messages. Assistant messages may carry
// a bare boolean instead.
type messageSummary struct {
	Title string        `json:"title"`
	Diffs []models.Diff `json:"diffs"`
}

type rawPart struct {
	ID        string `json:"id"`
	MessageID string `json:"messageID"`
	Type      string `json:"type"`
	Tool      string `json:"tool"`
	State     struct {
		Input  json.RawMessage `json:"input"`
		Output json.RawMessage `json:"output"`
		Time   recordTime      `json:"time"`
	} `json:"state"`
}

func decodeSession(data []byte, projectID string) (models.Session, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Session{}, err
	}
	s := models.Session{
		ID:        raw.ID,
		ProjectID: raw.ProjectID,
		ParentID:  raw.ParentID,
		Title:     raw.Title,
		Slug:      raw.Slug,
		Directory: raw.Directory,
		Created:   raw.Time.Created,
		Updated:   raw.Time.Updated,
	}
	if s.ProjectID == "" {
		s.ProjectID = projectID
	}
	if isObject(raw.Summary) {
		var sum models.SessionSummary
		if json.Unmarshal(raw.Summary, &sum) == nil {
			s.Summary = &sum
		}
	}
	return s, nil
}

func decodeMessage(data []byte) (models.Message, error) {
	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Message{}, err
	}
	m := models.Message{
		ID:         raw.ID,
		SessionID:  raw.SessionID,
		Role:       models.MessageRole(raw.Role),
		Agent:      raw.Agent,
		ModelID:    raw.ModelID,
		ProviderID: raw.ProviderID,
		Created:    raw.Time.Created,
		Completed:  raw.Time.Completed,
		Tokens:     raw.Tokens,
		Cost:       raw.Cost,
		Finish:     raw.Finish,
	}
	if m.Agent == "" {
		m.Agent = raw.Mode
	}
	if isObject(raw.Summary) {
		var sum messageSummary
		if json.Unmarshal(raw.Summary, &sum) == nil {
			m.Title = sum.Title
			m.Diffs = sum.Diffs
		}
	}
	return m, nil
}

func decodePart(data []byte) (models.RawToolRecord, error) {
	var raw rawPart
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.RawToolRecord{}, err
	}
	return models.RawToolRecord{
		ID:        raw.ID,
		MessageID: raw.MessageID,
		Type:      raw.Type,
		Tool:      raw.Tool,
		Input:     raw.State.Input,
		Output:    raw.State.Output,
		Start:     raw.State.Time.Start,
		End:       raw.State.Time.End,
	}, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
