package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesync/notesync/internal/journal"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/vault"
)

// fakeTarget records upserts and can be told to fail specific paths.
type fakeTarget struct {
	name       string
	configured bool
	missing    []string

	upserts   []string
	priors    map[string]*target.RemoteRef
	failPaths map[string]error
	failOnce  map[string]error
	created   int
}

func newFakeTarget(name string) *fakeTarget {
	return &fakeTarget{
		name:       name,
		configured: true,
		priors:     map[string]*target.RemoteRef{},
		failPaths:  map[string]error{},
	}
}

func (f *fakeTarget) Name() string          { return f.name }
func (f *fakeTarget) Configured() bool      { return f.configured }
func (f *fakeTarget) MissingVars() []string { return f.missing }

func (f *fakeTarget) Upsert(_ context.Context, doc *vault.Document, prior *target.RemoteRef) (*target.RemoteRef, error) {
	f.upserts = append(f.upserts, doc.RelPath)
	f.priors[doc.RelPath] = prior
	if err, ok := f.failPaths[doc.RelPath]; ok {
		return nil, err
	}
	if err, ok := f.failOnce[doc.RelPath]; ok {
		delete(f.failOnce, doc.RelPath)
		return nil, err
	}
	if prior != nil {
		return prior, nil
	}
	f.created++
	return &target.RemoteRef{ID: fmt.Sprintf("%s-doc-%d", f.name, f.created)}, nil
}

func writeVaultFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func newTestEngine(t *testing.T, targets ...target.Target) (*Engine, string, *journal.Store) {
	t.Helper()
	root := t.TempDir()
	writeVaultFile(t, root, "archives/2026-08-20-planning.md", "# Planning\n\nnotes\n")
	writeVaultFile(t, root, "knowledge/sop/deploy.md", "# Deploy\n\nsteps\n")
	writeVaultFile(t, root, "threads/THREADS.md", "## Follow-ups\n\n- [ ] check logs\n")

	v, err := vault.New(root)
	require.NoError(t, err)

	store, err := journal.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(v, store, targets...), root, store
}

func TestRun_FirstRunSyncsEverything(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, _, store := newTestEngine(t, tgt)

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 3, summary.PerTarget["feishu"].Succeeded)
	assert.Equal(t, 0, summary.PerTarget["feishu"].Skipped)
	assert.False(t, summary.Failed())
	assert.Len(t, tgt.upserts, 3)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRun_SecondRunSkipsUnchanged(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, _, _ := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	tgt.upserts = nil

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.PerTarget["feishu"].Succeeded)
	assert.Equal(t, 3, summary.PerTarget["feishu"].Skipped)
	assert.Empty(t, tgt.upserts)
}

func TestRun_ChangedFileResyncs(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, root, _ := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	tgt.upserts = nil

	writeVaultFile(t, root, "knowledge/sop/deploy.md", "# Deploy\n\nsteps changed\n")

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PerTarget["feishu"].Succeeded)
	assert.Equal(t, 2, summary.PerTarget["feishu"].Skipped)
	assert.Equal(t, []string{"knowledge/sop/deploy.md"}, tgt.upserts)

	// resync reuses the remote doc instead of creating another
	prior := tgt.priors["knowledge/sop/deploy.md"]
	require.NotNil(t, prior)
	assert.NotEmpty(t, prior.ID)
}

func TestRun_TargetsTrackIndependently(t *testing.T) {
	feishu := newFakeTarget("feishu")
	notion := newFakeTarget("notion")
	notion.configured = false
	engine, _, _ := newTestEngine(t, feishu, notion)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, notion.upserts)

	// notion comes online later and has to catch up from scratch
	notion.configured = true
	feishu.upserts = nil

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, feishu.upserts)
	assert.Equal(t, 3, summary.PerTarget["notion"].Succeeded)
	assert.Equal(t, 3, summary.PerTarget["feishu"].Skipped)
}

func TestRun_SingleFileScope(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, root, _ := newTestEngine(t, tgt)

	summary, err := engine.Run(context.Background(), Options{
		File: filepath.Join(root, "archives/2026-08-20-planning.md"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, []string{"archives/2026-08-20-planning.md"}, tgt.upserts)
}

func TestRun_FailureIsIsolated(t *testing.T) {
	tgt := newFakeTarget("feishu")
	tgt.failPaths["knowledge/sop/deploy.md"] = target.NewError(target.CodeTransient, "feishu", "upsert", "boom")
	engine, _, store := newTestEngine(t, tgt)

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.PerTarget["feishu"].Succeeded)
	assert.Equal(t, 1, summary.PerTarget["feishu"].Failed)
	assert.True(t, summary.Failed())

	// no record for the failed file, so the next run retries it
	rec, err := store.Get("knowledge/sop/deploy.md", "feishu")
	require.NoError(t, err)
	assert.Nil(t, rec)

	delete(tgt.failPaths, "knowledge/sop/deploy.md")
	tgt.upserts = nil

	summary, err = engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"knowledge/sop/deploy.md"}, tgt.upserts)
	assert.False(t, summary.Failed())
}

func TestRun_FailureOnOneTargetDoesNotBlockOther(t *testing.T) {
	feishu := newFakeTarget("feishu")
	feishu.failPaths["archives/2026-08-20-planning.md"] = target.NewError(target.CodeUnauthorized, "feishu", "upsert", "denied")
	notion := newFakeTarget("notion")
	engine, _, _ := newTestEngine(t, feishu, notion)

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PerTarget["feishu"].Failed)
	assert.Equal(t, 3, summary.PerTarget["notion"].Succeeded)
}

func TestRun_ModeAllForcesResync(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, _, _ := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	tgt.upserts = nil

	summary, err := engine.Run(context.Background(), Options{Mode: ModeAll})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.PerTarget["feishu"].Succeeded)
	assert.Len(t, tgt.upserts, 3)
}

func TestRun_NoConfiguredTargets(t *testing.T) {
	tgt := newFakeTarget("feishu")
	tgt.configured = false
	engine, _, _ := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestRun_StaleRemoteRefRecreates(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, root, store := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	// the remote doc disappears between runs: the first attempt carries
	// the stale ref and reports not-found, the retry creates fresh
	writeVaultFile(t, root, "knowledge/sop/deploy.md", "# Deploy\n\nnew steps\n")
	tgt.failOnce = map[string]error{
		"knowledge/sop/deploy.md": target.NewError(target.CodeNotFound, "feishu", "upsert", "doc deleted"),
	}
	tgt.upserts = nil

	summary, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PerTarget["feishu"].Succeeded)
	assert.Equal(t, 0, summary.PerTarget["feishu"].Failed)

	// two upserts for the one file: stale-ref attempt plus the recreate
	assert.Equal(t, []string{"knowledge/sop/deploy.md", "knowledge/sop/deploy.md"}, tgt.upserts)
	assert.Nil(t, tgt.priors["knowledge/sop/deploy.md"])

	rec, err := store.Get("knowledge/sop/deploy.md", "feishu")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.RemoteID)
}

func TestRun_PrunesDeletedFiles(t *testing.T) {
	tgt := newFakeTarget("feishu")
	engine, root, store := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "archives/2026-08-20-planning.md")))

	_, err = engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	rec, err := store.Get("archives/2026-08-20-planning.md", "feishu")
	require.NoError(t, err)
	assert.Nil(t, rec)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStatus(t *testing.T) {
	feishu := newFakeTarget("feishu")
	notion := newFakeTarget("notion")
	notion.configured = false
	notion.missing = []string{"NOTION_API_KEY"}
	engine, root, _ := newTestEngine(t, feishu, notion)

	report, err := engine.Status()
	require.NoError(t, err)
	assert.Equal(t, 3, report.VaultFiles)
	assert.Equal(t, 0, report.TrackedFiles)
	assert.Equal(t, 3, report.DirtyFiles)

	_, err = engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	report, err = engine.Status()
	require.NoError(t, err)
	assert.Equal(t, 3, report.TrackedFiles)
	assert.Equal(t, 0, report.DirtyFiles)

	require.Len(t, report.Targets, 2)
	assert.Equal(t, StateReady, report.Targets[0].State)
	assert.False(t, report.Targets[0].LastSync.IsZero())
	assert.Equal(t, StateDisabled, report.Targets[1].State)
	assert.Equal(t, []string{"NOTION_API_KEY"}, report.Targets[1].MissingVars)

	// one edit makes exactly one file dirty again
	writeVaultFile(t, root, "threads/THREADS.md", "## Follow-ups\n\n- [x] check logs\n")
	report, err = engine.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, report.DirtyFiles)
}

func TestStatus_FailingTarget(t *testing.T) {
	tgt := newFakeTarget("feishu")
	tgt.failPaths["threads/THREADS.md"] = target.NewError(target.CodeTransient, "feishu", "upsert", "boom")
	engine, _, _ := newTestEngine(t, tgt)

	_, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)

	report, err := engine.Status()
	require.NoError(t, err)
	require.Len(t, report.Targets, 1)
	assert.Equal(t, StateFailing, report.Targets[0].State)
	require.NotNil(t, report.Targets[0].LastRun)
	assert.Equal(t, 1, report.Targets[0].LastRun.Failed)
}

func TestCheck(t *testing.T) {
	feishu := newFakeTarget("feishu")
	notion := newFakeTarget("notion")
	notion.configured = false
	notion.missing = []string{"NOTION_API_KEY", "NOTION_DATABASE_ID"}
	engine, _, _ := newTestEngine(t, feishu, notion)

	checks := engine.Check()
	require.Len(t, checks, 2)
	assert.True(t, checks[0].Configured)
	assert.False(t, checks[1].Configured)
	assert.Len(t, checks[1].MissingVars, 2)
}
