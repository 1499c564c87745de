package vault

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DocType classifies a document by the managed subtree it lives in.
// It decides which remote representation the adapters build.
type DocType string

const (
	// TypeThreads is the open-threads tracker. Each entry becomes a
	// structured row rather than a document.
	TypeThreads DocType = "threads"

	// TypeArchive covers conversation archives and review reports:
	// a detail document plus an index row with extracted metadata.
	TypeArchive DocType = "archive"

	// TypeKnowledge is distilled knowledge: a detail document plus an
	// index row with type and summary.
	TypeKnowledge DocType = "knowledge"
)

// Document is a local Markdown file under the vault. Read-only from the
// sync system's perspective; the local file is always authoritative.
type Document struct {
	RelPath string
	AbsPath string
	Title   string
	Type    DocType
	Content []byte
	Hash    string
	Size    int64
	ModTime time.Time
}

// LoadDocument reads and hashes the file at relPath under root.
func LoadDocument(root, relPath string) (*Document, error) {
	absPath := filepath.Join(root, filepath.FromSlash(relPath))

	stat, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("path is a directory: %s", relPath)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buffer bytes.Buffer
	hasher := md5.New()
	// Write to both the buffer and the hasher in one pass
	multiWriter := io.MultiWriter(&buffer, hasher)

	if _, err := io.Copy(multiWriter, file); err != nil {
		return nil, err
	}

	name := filepath.Base(relPath)
	return &Document{
		RelPath: filepath.ToSlash(relPath),
		AbsPath: absPath,
		Title:   strings.TrimSuffix(name, filepath.Ext(name)),
		Type:    Classify(relPath),
		Content: buffer.Bytes(),
		Hash:    fmt.Sprintf("%x", hasher.Sum(nil)),
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}, nil
}

// Classify derives the document type from the top-level managed directory.
// Review reports are archived like conversations.
func Classify(relPath string) DocType {
	rel := filepath.ToSlash(relPath)
	top, _, _ := strings.Cut(rel, "/")

	switch top {
	case DirThreads:
		return TypeThreads
	case DirArchives, DirReviews:
		return TypeArchive
	case DirKnowledge:
		return TypeKnowledge
	default:
		if filepath.Base(rel) == ThreadsFileName {
			return TypeThreads
		}
		return TypeKnowledge
	}
}
