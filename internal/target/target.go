package target

import (
	"context"
	"time"

	"github.com/notesync/notesync/internal/vault"
)

// RemoteRef identifies the remote artifact a local document maps to.
// For Feishu this is a bitable record id (plus the detail doc URL), for
// Notion a page id.
type RemoteRef struct {
	ID  string
	URL string
}

// Target is a sync destination. Implementations own their credentials and
// network client; no state is shared between targets.
type Target interface {
	// Name is the stable identifier used as the journal key, e.g. "feishu".
	Name() string

	// Configured reports whether every required credential for this target
	// is present and non-empty. Evaluated once per run.
	Configured() bool

	// MissingVars lists the environment variables that keep this target
	// disabled. Empty when Configured() is true.
	MissingVars() []string

	// Upsert pushes the document to the remote. When prior is non-nil the
	// remote artifact is overwritten in place, otherwise a new one is
	// created. The returned ref is recorded in the journal.
	Upsert(ctx context.Context, doc *vault.Document, prior *RemoteRef) (*RemoteRef, error)
}

// Record is one journal row: the last successfully synced state of a
// (document, target) pair.
type Record struct {
	Path     string    `db:"path"`
	Target   string    `db:"target"`
	Hash     string    `db:"hash"`
	RemoteID string    `db:"remote_id"`
	URL      string    `db:"remote_url"`
	SyncedAt time.Time `db:"synced_at"`
}
