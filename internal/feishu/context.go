package feishu

import (
	"context"
	"time"

	"github.com/notesync/notesync/internal/target"
)

const recentArchiveLimit = 5

// ThreadSummary is one pending item from the threads table.
type ThreadSummary struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Source   string `json:"source,omitempty"`
}

// ArchiveSummary is one recent row from the archives table.
type ArchiveSummary struct {
	Date    string `json:"date"`
	Topic   string `json:"topic"`
	Summary string `json:"summary,omitempty"`
}

// ContextSnapshot is the read-only state pulled from the bitable at the
// start of a session. No local state is mutated to produce it.
type ContextSnapshot struct {
	FetchedAt      time.Time        `json:"fetched_at"`
	PendingThreads []ThreadSummary  `json:"pending_threads"`
	RecentArchives []ArchiveSummary `json:"recent_archives"`
}

// FetchContext reads pending threads and recent archives from the bitable.
func (a *Adapter) FetchContext(ctx context.Context) (*ContextSnapshot, error) {
	if !a.cfg.BitableEnabled() {
		return nil, target.NewError(target.CodeConfigMissing, Name, "fetch context", "bitable deployment not configured")
	}

	snapshot := &ContextSnapshot{FetchedAt: time.Now()}

	threadsID, err := a.tableID(ctx, TableThreads)
	if err != nil {
		return nil, err
	}
	pendingFilter := map[string]any{
		"conjunction": "and",
		"conditions": []map[string]any{{
			"field_name": "Status",
			"operator":   "is",
			"value":      []string{"pending"},
		}},
	}
	pending, err := a.client.SearchRecords(ctx, a.cfg.BitableToken, threadsID, pendingFilter, 0)
	if err != nil {
		return nil, err
	}
	for _, rec := range pending {
		snapshot.PendingThreads = append(snapshot.PendingThreads, ThreadSummary{
			Title:    fieldString(rec.Fields, "Title"),
			Priority: fieldString(rec.Fields, "Priority"),
			Source:   fieldString(rec.Fields, "Source"),
		})
	}

	archivesID, err := a.tableID(ctx, TableArchives)
	if err != nil {
		return nil, err
	}
	archives, err := a.client.SearchRecords(ctx, a.cfg.BitableToken, archivesID, nil, recentArchiveLimit)
	if err != nil {
		return nil, err
	}
	for _, rec := range archives {
		snapshot.RecentArchives = append(snapshot.RecentArchives, ArchiveSummary{
			Date:    fieldDate(rec.Fields, "Date"),
			Topic:   fieldString(rec.Fields, "Topic"),
			Summary: fieldString(rec.Fields, "Summary"),
		})
	}

	return snapshot, nil
}

func fieldString(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case []any:
		// text fields may come back as rich-text segments
		out := ""
		for _, seg := range v {
			if m, ok := seg.(map[string]any); ok {
				if s, ok := m["text"].(string); ok {
					out += s
				}
			}
		}
		return out
	default:
		return ""
	}
}

func fieldDate(fields map[string]any, key string) string {
	if millis, ok := fields[key].(float64); ok {
		return time.UnixMilli(int64(millis)).Format("2006-01-02")
	}
	return fieldString(fields, key)
}
