package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/notesync/notesync/internal/utils"
)

// Managed subtrees under the vault root. Markdown anywhere else is left
// alone.
const (
	DirArchives  = "archives"
	DirThreads   = "threads"
	DirKnowledge = "knowledge"
	DirReviews   = "reviews"

	ThreadsFileName = "THREADS.md"
)

var managedGlobs = []string{
	DirArchives + "/**/*.md",
	DirThreads + "/**/*.md",
	DirKnowledge + "/**/*.md",
	DirReviews + "/**/*.md",
}

var (
	// ErrNotInVault marks a path outside the managed subtrees.
	ErrNotInVault = errors.New("path is not inside a managed vault directory")
)

// Vault enumerates and loads the local Markdown documents.
type Vault struct {
	root   string
	ignore *IgnoreList
}

func New(root string) (*Vault, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	if !utils.DirExists(resolved) {
		return nil, fmt.Errorf("vault root does not exist: %s", resolved)
	}
	return &Vault{
		root:   resolved,
		ignore: NewIgnoreList(),
	}, nil
}

func (v *Vault) Root() string {
	return v.root
}

// StateDir is where the journal and logs live, outside the managed trees.
func (v *Vault) StateDir() string {
	return filepath.Join(v.root, ".notesync")
}

// List walks the managed subtrees and returns every tracked document,
// hashed and loaded, in deterministic path order.
func (v *Vault) List() ([]*Document, error) {
	fsys := os.DirFS(v.root)
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range managedGlobs {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			if v.ignore.ShouldIgnore(m) {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadDocument(v.root, p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Resolve maps an arbitrary CLI path onto a tracked document. It fails
// with os.ErrNotExist when the file is missing and ErrNotInVault when it
// lives outside the managed subtrees.
func (v *Vault) Resolve(path string) (*Document, error) {
	resolved, err := utils.ResolvePath(path)
	if err != nil {
		return nil, err
	}

	if !utils.FileExists(resolved) {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}

	rel, err := filepath.Rel(v.root, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotInVault)
	}

	rel = filepath.ToSlash(rel)
	if !v.isManaged(rel) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotInVault)
	}

	return LoadDocument(v.root, rel)
}

func (v *Vault) isManaged(relPath string) bool {
	if v.ignore.ShouldIgnore(relPath) {
		return false
	}
	for _, pattern := range managedGlobs {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
