package feishu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/vault"
)

// Name is the journal key for this target.
const Name = "feishu"

// Adapter syncs vault documents to Feishu: a detail cloud doc per file,
// plus index rows in the bitable when that deployment is configured.
type Adapter struct {
	client *Client
	cfg    *config.FeishuConfig

	tablesOnce sync.Once
	tableIDs   map[string]string
	tablesErr  error
}

func NewAdapter(cfg *config.FeishuConfig, opts ...ClientOption) *Adapter {
	return &Adapter{
		client: NewClient(cfg, opts...),
		cfg:    cfg,
	}
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) Configured() bool {
	return a.cfg.Configured()
}

func (a *Adapter) MissingVars() []string {
	return a.cfg.MissingVars()
}

// Client exposes the underlying API client for the read path and init.
func (a *Adapter) Client() *Client {
	return a.client
}

// Upsert pushes one document. Thread trackers become bitable rows; archive
// and knowledge files become a detail doc plus an index row. The returned
// ref records the detail doc so later runs overwrite it in place.
func (a *Adapter) Upsert(ctx context.Context, doc *vault.Document, prior *target.RemoteRef) (*target.RemoteRef, error) {
	if doc.Type == vault.TypeThreads && a.cfg.BitableEnabled() {
		return a.upsertThreads(ctx, doc)
	}
	return a.upsertDocument(ctx, doc, prior)
}

// upsertThreads writes one row per parsed thread, keyed by title.
func (a *Adapter) upsertThreads(ctx context.Context, doc *vault.Document) (*target.RemoteRef, error) {
	tableID, err := a.tableID(ctx, TableThreads)
	if err != nil {
		return nil, err
	}

	items := vault.ParseThreads(doc.Content)
	for _, item := range items {
		fields := map[string]any{
			"Title":    item.Title,
			"Category": item.Category,
			"Status":   item.Status,
			"Priority": item.Priority,
			"Content":  item.Body,
			"Source":   item.Source,
			"Created":  dateToMillis(item.Date),
		}

		existing, err := a.client.FindRecord(ctx, a.cfg.BitableToken, tableID, "Title", item.Title)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := a.client.UpdateRecord(ctx, a.cfg.BitableToken, tableID, existing.RecordID, fields); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := a.client.AddRecord(ctx, a.cfg.BitableToken, tableID, fields); err != nil {
			return nil, err
		}
	}

	slog.Debug("feishu threads synced", "path", doc.RelPath, "items", len(items))
	return &target.RemoteRef{ID: "bitable:" + tableID}, nil
}

// upsertDocument creates or overwrites the detail doc, then refreshes the
// index row when the bitable is configured.
func (a *Adapter) upsertDocument(ctx context.Context, doc *vault.Document, prior *target.RemoteRef) (*target.RemoteRef, error) {
	content := string(doc.Content)

	ref := prior
	if ref != nil && ref.ID != "" {
		if err := a.client.ReplaceDocumentContent(ctx, ref.ID, content); err != nil {
			return nil, err
		}
	} else {
		docID, url, err := a.client.CreateDocument(ctx, doc.Title, content)
		if err != nil {
			return nil, err
		}
		ref = &target.RemoteRef{ID: docID, URL: url}
	}

	if a.cfg.BitableEnabled() && doc.Type != vault.TypeThreads {
		if err := a.upsertIndexRow(ctx, doc, ref); err != nil {
			return nil, err
		}
	}

	return ref, nil
}

func (a *Adapter) upsertIndexRow(ctx context.Context, doc *vault.Document, ref *target.RemoteRef) error {
	meta := vault.ParseMeta(doc)

	var tableKey, keyField string
	var fields map[string]any

	switch doc.Type {
	case vault.TypeArchive:
		tableKey, keyField = TableArchives, "Topic"
		fields = map[string]any{
			"Date":      dateToMillis(meta.Date),
			"Topic":     meta.Title,
			"Summary":   meta.Summary,
			"Insights":  joinLines(meta.Insights),
			"OpenItems": meta.OpenItems,
		}
		if len(meta.Tags) > 0 {
			fields["Tags"] = meta.Tags
		}

	case vault.TypeKnowledge:
		tableKey, keyField = TableKnowledge, "Title"
		fields = map[string]any{
			"Title":   meta.Title,
			"Type":    meta.Subtype,
			"Summary": meta.Summary,
			"Created": time.Now().UnixMilli(),
		}

	default:
		return nil
	}

	if ref.URL != "" {
		fields["Link"] = map[string]string{"link": ref.URL, "text": "open"}
	}

	tableID, err := a.tableID(ctx, tableKey)
	if err != nil {
		return err
	}

	existing, err := a.client.FindRecord(ctx, a.cfg.BitableToken, tableID, keyField, meta.Title)
	if err != nil {
		return err
	}
	if existing != nil {
		return a.client.UpdateRecord(ctx, a.cfg.BitableToken, tableID, existing.RecordID, fields)
	}
	_, err = a.client.AddRecord(ctx, a.cfg.BitableToken, tableID, fields)
	return err
}

// tableID caches the table name → id mapping for the run.
func (a *Adapter) tableID(ctx context.Context, key string) (string, error) {
	a.tablesOnce.Do(func() {
		a.tableIDs, a.tablesErr = a.client.ListTables(ctx, a.cfg.BitableToken)
	})
	if a.tablesErr != nil {
		return "", a.tablesErr
	}

	cfg, ok := tableConfigs[key]
	if !ok {
		return "", fmt.Errorf("unknown table key: %s", key)
	}
	id, ok := a.tableIDs[cfg.Name]
	if !ok {
		return "", target.NewError(target.CodeNotFound, Name, "table lookup",
			fmt.Sprintf("table %q not provisioned, run `notesync init`", cfg.Name))
	}
	return id, nil
}

func dateToMillis(date string) int64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
