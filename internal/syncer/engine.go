package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/notesync/notesync/internal/journal"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/vault"
)

// ErrNoTargets is returned when a sync run finds no configured target.
var ErrNoTargets = errors.New("no sync target configured")

// Mode selects which files a run pushes.
type Mode string

const (
	// ModeChanged pushes files whose content hash moved since the last
	// successful sync to each target.
	ModeChanged Mode = "changed"

	// ModeAll pushes every managed file regardless of recorded hashes.
	ModeAll Mode = "all"
)

// Options configures one sync run.
type Options struct {
	Mode Mode

	// File limits the run to a single vault file. Empty means the whole
	// vault.
	File string
}

// TargetStats tallies one target's outcomes within a run.
type TargetStats struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Summary is the outcome of one sync run.
type Summary struct {
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Files     int
	PerTarget map[string]*TargetStats
}

// Failed reports whether any upsert in the run failed.
func (s *Summary) Failed() bool {
	for _, stats := range s.PerTarget {
		if stats.Failed > 0 {
			return true
		}
	}
	return false
}

// Succeeded totals successful upserts across targets.
func (s *Summary) Succeeded() int {
	total := 0
	for _, stats := range s.PerTarget {
		total += stats.Succeeded
	}
	return total
}

// Engine drives sync runs: it walks the vault, consults the journal for
// what changed and pushes dirty files to each configured target. Targets
// run in the order they were registered, and a failure against one
// (file, target) pair never blocks the rest of the run.
type Engine struct {
	vault   *vault.Vault
	journal *journal.Store
	targets []target.Target
}

func New(v *vault.Vault, store *journal.Store, targets ...target.Target) *Engine {
	return &Engine{
		vault:   v,
		journal: store,
		targets: targets,
	}
}

// Run executes one sync pass and returns its summary. Upsert failures are
// tallied, not returned; the only errors surfaced here are environmental
// ones a partial run cannot get past.
func (e *Engine) Run(ctx context.Context, opts Options) (*Summary, error) {
	configured := e.configured()
	if len(configured) == 0 {
		return nil, ErrNoTargets
	}
	if opts.Mode == "" {
		opts.Mode = ModeChanged
	}

	docs, err := e.collect(opts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     uuid.NewString(),
		Started:   time.Now(),
		Files:     len(docs),
		PerTarget: make(map[string]*TargetStats, len(configured)),
	}
	log := slog.With("run", summary.RunID)
	log.Info("sync run started", "mode", string(opts.Mode), "files", len(docs), "targets", len(configured))

	for _, tgt := range configured {
		stats := &TargetStats{}
		summary.PerTarget[tgt.Name()] = stats

		for _, doc := range docs {
			e.syncOne(ctx, log, tgt, doc, opts.Mode, stats)
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
		}

		if err := e.journal.SetRunStats(&journal.RunStats{
			Target:    tgt.Name(),
			RanAt:     time.Now(),
			Succeeded: stats.Succeeded,
			Failed:    stats.Failed,
			Skipped:   stats.Skipped,
		}); err != nil {
			log.Warn("record run stats", "target", tgt.Name(), "error", err)
		}
	}

	if opts.File == "" {
		e.pruneDeleted(log, docs)
	}

	summary.Duration = time.Since(summary.Started)
	log.Info("sync run finished", "duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// syncOne pushes one document to one target when it is dirty there.
func (e *Engine) syncOne(ctx context.Context, log *slog.Logger, tgt target.Target, doc *vault.Document, mode Mode, stats *TargetStats) {
	rec, err := e.journal.Get(doc.RelPath, tgt.Name())
	if err != nil {
		log.Error("read journal", "path", doc.RelPath, "target", tgt.Name(), "error", err)
		stats.Failed++
		return
	}

	if mode != ModeAll && rec != nil && rec.Hash == doc.Hash {
		stats.Skipped++
		return
	}

	var prior *target.RemoteRef
	if rec != nil && rec.RemoteID != "" {
		prior = &target.RemoteRef{ID: rec.RemoteID, URL: rec.URL}
	}

	ref, err := tgt.Upsert(ctx, doc, prior)
	if prior != nil && target.IsNotFound(err) {
		// remote side lost the doc, recreate instead of failing the file
		log.Warn("stale remote ref, recreating", "path", doc.RelPath, "target", tgt.Name())
		ref, err = tgt.Upsert(ctx, doc, nil)
	}
	if err != nil {
		log.Error("upsert failed", "path", doc.RelPath, "target", tgt.Name(), "error", err)
		stats.Failed++
		return
	}

	newRec := &target.Record{
		Path:     doc.RelPath,
		Target:   tgt.Name(),
		Hash:     doc.Hash,
		SyncedAt: time.Now(),
	}
	if ref != nil {
		newRec.RemoteID = ref.ID
		newRec.URL = ref.URL
	}
	if err := e.journal.Set(newRec); err != nil {
		log.Error("write journal", "path", doc.RelPath, "target", tgt.Name(), "error", err)
		stats.Failed++
		return
	}

	log.Info("synced", "path", doc.RelPath, "target", tgt.Name())
	stats.Succeeded++
}

// collect resolves the run's file set.
func (e *Engine) collect(opts Options) ([]*vault.Document, error) {
	if opts.File != "" {
		doc, err := e.vault.Resolve(opts.File)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", opts.File, err)
		}
		return []*vault.Document{doc}, nil
	}
	return e.vault.List()
}

// pruneDeleted drops journal rows for files no longer in the vault so
// --status counts stay honest. Remote docs are left alone.
func (e *Engine) pruneDeleted(log *slog.Logger, docs []*vault.Document) {
	tracked, err := e.journal.Paths()
	if err != nil {
		log.Warn("list tracked paths", "error", err)
		return
	}

	present := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		present[doc.RelPath] = struct{}{}
	}

	for _, path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := e.journal.DeletePath(path); err != nil {
			log.Warn("prune journal", "path", path, "error", err)
			continue
		}
		log.Info("pruned deleted file", "path", path)
	}
}

func (e *Engine) configured() []target.Target {
	var out []target.Target
	for _, tgt := range e.targets {
		if tgt.Configured() {
			out = append(out, tgt)
		}
	}
	return out
}
