package analysis

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/grovetools/swarmstat/pkg/models"
)

// ToolSource yields the raw parts recorded for a message.
type ToolSource interface {
	ListToolRecords(ctx context.Context, messageID string) []models.RawToolRecord
}

// CollectEvents loads the parts of one message and normalizes its tool
// invocations. Messages without tool activity yield no events.
func CollectEvents(ctx context.Context, src ToolSource, messageID string, h Heuristics) []models.ToolEvent {
	return h.ToolEvents(src.ListToolRecords(ctx, messageID))
}

// ToolEvents converts raw parts into tool events, dropping parts that are
// not tool invocations.
func (h Heuristics) ToolEvents(records []models.RawToolRecord) []models.ToolEvent {
	events := make([]models.ToolEvent, 0, len(records))
	for _, r := range records {
		if r.Type != models.PartTypeTool {
			continue
		}
		events = append(events, h.toolEvent(r))
	}
	return events
}

func (h Heuristics) toolEvent(r models.RawToolRecord) models.ToolEvent {
	input := compactJSON(r.Input, "{}")
	output := compactJSON(r.Output, `""`)

	var args map[string]interface{}
	_ = json.Unmarshal(input, &args)

	ev := models.ToolEvent{
		Tool:         r.Tool,
		Args:         args,
		InputTokens:  h.PayloadTokens(len(input)),
		OutputTokens: h.PayloadTokens(len(output)),
		Start:        r.Start,
		End:          r.End,
	}
	if r.Start != 0 && r.End != 0 {
		ev.Duration = r.End - r.Start
	}
	if h.isReadTool(r.Tool) && !h.hasRangeHint(args) {
		ev.Inefficient = true
		ev.File, _ = args["filePath"].(string)
	}
	return ev
}

// hasRangeHint reports whether any range parameter is set to a non-empty,
// non-zero value.
func (h Heuristics) hasRangeHint(args map[string]interface{}) bool {
	for _, p := range h.RangeParams {
		if present(args[p]) {
			return true
		}
	}
	return false
}

func present(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// compactJSON strips insignificant whitespace so lengths do not depend on
// how the record was pretty-printed. Empty, null and false-y payloads are
// replaced with fallback.
func compactJSON(raw json.RawMessage, fallback string) []byte {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return []byte(fallback)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return []byte(fallback)
	}
	return buf.Bytes()
}
