package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func newTestVault(t *testing.T) (*Vault, string) {
	t.Helper()
	root := t.TempDir()
	v, err := New(root)
	require.NoError(t, err)
	return v, root
}

func TestList_WalksManagedDirsOnly(t *testing.T) {
	v, root := newTestVault(t)

	writeFile(t, root, "archives/2026-01-02-sync-design.md", "# Sync design\n")
	writeFile(t, root, "threads/THREADS.md", "## Follow-ups\n- [ ] ship it\n")
	writeFile(t, root, "knowledge/methodology/review-loop.md", "# Review loop\n")
	writeFile(t, root, "reviews/2026-W01.md", "# Week one\n")
	writeFile(t, root, "inbox/unmanaged.md", "# not tracked\n")
	writeFile(t, root, "scripts/README.md", "# not tracked\n")

	docs, err := v.List()
	require.NoError(t, err)
	require.Len(t, docs, 4)

	var paths []string
	for _, d := range docs {
		paths = append(paths, d.RelPath)
	}
	assert.Contains(t, paths, "archives/2026-01-02-sync-design.md")
	assert.Contains(t, paths, "threads/THREADS.md")
	assert.Contains(t, paths, "knowledge/methodology/review-loop.md")
	assert.Contains(t, paths, "reviews/2026-W01.md")
}

func TestList_SkipsTemplatesAndState(t *testing.T) {
	v, root := newTestVault(t)

	writeFile(t, root, "archives/_template.md", "# template\n")
	writeFile(t, root, "archives/real.md", "# real\n")

	docs, err := v.List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "archives/real.md", docs[0].RelPath)
}

func TestList_DeterministicOrder(t *testing.T) {
	v, root := newTestVault(t)

	writeFile(t, root, "knowledge/b.md", "b\n")
	writeFile(t, root, "archives/a.md", "a\n")

	docs, err := v.List()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "archives/a.md", docs[0].RelPath)
	assert.Equal(t, "knowledge/b.md", docs[1].RelPath)
}

func TestLoadDocument_HashTracksContent(t *testing.T) {
	v, root := newTestVault(t)
	abs := writeFile(t, root, "archives/a.md", "one\n")

	d1, err := LoadDocument(v.Root(), "archives/a.md")
	require.NoError(t, err)

	d2, err := LoadDocument(v.Root(), "archives/a.md")
	require.NoError(t, err)
	assert.Equal(t, d1.Hash, d2.Hash)

	require.NoError(t, os.WriteFile(abs, []byte("two\n"), 0o644))
	d3, err := LoadDocument(v.Root(), "archives/a.md")
	require.NoError(t, err)
	assert.NotEqual(t, d1.Hash, d3.Hash)
}

func TestResolve_ErrorsOutsideVault(t *testing.T) {
	v, root := newTestVault(t)

	// missing file
	_, err := v.Resolve(filepath.Join(root, "archives", "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// outside the managed subtrees
	abs := writeFile(t, root, "inbox/loose.md", "x\n")
	_, err = v.Resolve(abs)
	assert.ErrorIs(t, err, ErrNotInVault)
}

func TestResolve_LoadsManagedFile(t *testing.T) {
	v, root := newTestVault(t)
	abs := writeFile(t, root, "knowledge/note.md", "# note\n")

	doc, err := v.Resolve(abs)
	require.NoError(t, err)
	assert.Equal(t, "knowledge/note.md", doc.RelPath)
	assert.Equal(t, "note", doc.Title)
	assert.Equal(t, TypeKnowledge, doc.Type)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TypeThreads, Classify("threads/THREADS.md"))
	assert.Equal(t, TypeArchive, Classify("archives/2026-01-02.md"))
	assert.Equal(t, TypeArchive, Classify("reviews/2026-W01.md"))
	assert.Equal(t, TypeKnowledge, Classify("knowledge/sop/deploy.md"))
}
