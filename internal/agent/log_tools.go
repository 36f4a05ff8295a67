package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/genoeg/kotori/internal/domain"
)

const defaultLogResults = 5

// LogSearcher is the slice of the log store the search tool needs.
type LogSearcher interface {
	Recent(limit int) ([]domain.LogEntry, error)
}

// SearchLogsTool returns recent journal entries, optionally filtered by
// keyword. Results come back newest first.
type SearchLogsTool struct {
	Logs LogSearcher
}

func (t *SearchLogsTool) Name() string { return "search_logs" }

func (t *SearchLogsTool) Description() string {
	return "Search the user's past journal entries. Use when the user asks what they did or wrote before."
}

func (t *SearchLogsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Keyword to filter entries. Omit to get the latest entries"},
			"limit": {"type": "integer", "description": "Maximum entries to return. Defaults to 5"}
		}
	}`)
}

func (t *SearchLogsTool) Execute(ctx context.Context, args json.RawMessage) Outcome {
	var a struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return Fail(fmt.Errorf("invalid arguments: %w", err))
		}
	}
	if a.Limit <= 0 {
		a.Limit = defaultLogResults
	}

	// Over-fetch when filtering so a sparse keyword can still fill the limit.
	fetch := a.Limit
	if a.Query != "" {
		fetch = a.Limit * 20
	}

	entries, err := t.Logs.Recent(fetch)
	if err != nil {
		return Fail(err)
	}

	var matched []domain.LogEntry
	for _, entry := range entries {
		if a.Query == "" || strings.Contains(entry.Content, a.Query) {
			matched = append(matched, entry)
			if len(matched) == a.Limit {
				break
			}
		}
	}

	out := OK(fmt.Sprintf("%d件の記録が見つかりました", len(matched)))
	out.Data = matched
	return out
}
