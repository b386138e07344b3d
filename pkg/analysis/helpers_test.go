package analysis_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/storage"
)

const project = "proj"

func addSession(s *storage.MemoryStore, id, parent string, created int64) {
	s.AddSession(models.Session{ID: id, ProjectID: project, ParentID: parent, Title: "Session " + id, Created: created})
}

// addMessages appends n assistant messages for agent, one second apart.
func addMessages(s *storage.MemoryStore, sid, agent string, n int, start int64) {
	for i := 0; i < n; i++ {
		s.AddMessage(models.Message{
			ID:        fmt.Sprintf("%s-m%d", sid, i),
			SessionID: sid,
			Role:      models.RoleAssistant,
			Agent:     agent,
			Created:   start + int64(i)*1000,
			Completed: start + int64(i)*1000 + 500,
			Tokens:    &models.TokenUsage{Input: 100, Output: 10},
		})
	}
}

func toolRecord(messageID, tool string, input interface{}, output string, start, end int64) models.RawToolRecord {
	in, _ := json.Marshal(input)
	out, _ := json.Marshal(output)
	return models.RawToolRecord{
		MessageID: messageID,
		Type:      models.PartTypeTool,
		Tool:      tool,
		Input:     in,
		Output:    out,
		Start:     start,
		End:       end,
	}
}

// childInjector reports a child session that cannot be resolved.
type childInjector struct {
	*storage.MemoryStore
	parent string
	ghost  models.Session
}

func (c childInjector) ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session {
	children := c.MemoryStore.ListChildSessions(ctx, projectID, parentID)
	if parentID == c.parent {
		children = append(children, c.ghost)
	}
	return children
}

func findingTypes(findings []models.Finding) []models.FindingType {
	out := make([]models.FindingType, len(findings))
	for i, f := range findings {
		out[i] = f.Type
	}
	return out
}

func countType(findings []models.Finding, kind models.FindingType) int {
	n := 0
	for _, f := range findings {
		if f.Type == kind {
			n++
		}
	}
	return n
}

func walk(n *models.Node, fn func(*models.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		walk(c, fn)
	}
}
