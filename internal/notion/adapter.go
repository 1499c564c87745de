package notion

import (
	"context"
	"log/slog"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/vault"
)

const Name = "notion"

// Adapter syncs vault documents into one Notion database, one page per
// file keyed by title.
type Adapter struct {
	client *Client
	cfg    *config.NotionConfig
}

var _ target.Target = (*Adapter)(nil)

func NewAdapter(cfg *config.NotionConfig, opts ...ClientOption) *Adapter {
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
	var missing []string
	if a.cfg.APIKey == "" {
		missing = append(missing, config.EnvNotionAPIKey)
	}
	if a.cfg.DatabaseID == "" {
		missing = append(missing, config.EnvNotionDatabaseID)
	}
	return missing
}

// Upsert creates or refreshes the page for one document. A prior ref
// short-circuits the title lookup; without one the database is queried
// so re-inits against an existing database stay idempotent.
func (a *Adapter) Upsert(ctx context.Context, doc *vault.Document, prior *target.RemoteRef) (*target.RemoteRef, error) {
	meta := vault.ParseMeta(doc)
	pageMeta := PageMeta{
		Title:   meta.Title,
		Date:    meta.Date,
		Tags:    meta.Tags,
		Summary: meta.Summary,
	}

	page := pageFromRef(prior)
	if page == nil {
		found, err := a.client.QueryByTitle(ctx, meta.Title)
		if err != nil {
			return nil, err
		}
		page = found
	}

	if page == nil {
		created, err := a.client.CreatePage(ctx, pageMeta, string(doc.Content))
		if err != nil {
			return nil, err
		}
		slog.Debug("notion page created", "path", doc.RelPath, "page", created.ID)
		return &target.RemoteRef{ID: created.ID, URL: created.URL}, nil
	}

	if err := a.client.ReplacePageContent(ctx, page.ID, string(doc.Content)); err != nil {
		return nil, err
	}
	if err := a.client.UpdatePageProperties(ctx, page.ID, pageMeta); err != nil {
		return nil, err
	}
	slog.Debug("notion page updated", "path", doc.RelPath, "page", page.ID)
	return &target.RemoteRef{ID: page.ID, URL: page.URL}, nil
}

func pageFromRef(ref *target.RemoteRef) *Page {
	if ref == nil || ref.ID == "" {
		return nil
	}
	return &Page{ID: ref.ID, URL: ref.URL}
}
