package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWithContent(title, content string) *Document {
	return &Document{
		Title:   title,
		RelPath: "archives/" + title + ".md",
		Content: []byte(content),
	}
}

func TestParseMeta_Frontmatter(t *testing.T) {
	content := `---
title: Sync engine notes
date: "2026-01-15"
tags: [go, sync]
summary: How the journal drives change detection.
---

# Sync engine notes

Body text.
`
	meta := ParseMeta(docWithContent("2026-01-15-sync", content))
	assert.Equal(t, "Sync engine notes", meta.Title)
	assert.Equal(t, "2026-01-15", meta.Date)
	assert.Equal(t, []string{"go", "sync"}, meta.Tags)
	assert.Equal(t, "How the journal drives change detection.", meta.Summary)
}

func TestParseMeta_InlineMarkers(t *testing.T) {
	content := `# Talk notes

**Date**: 2026-02-01
**Tags**: #sync #feishu

## Summary

One-way push keeps local files authoritative.

## Key Insights

### 1. Hash the content, not the mtime
### 2. Upserts must be idempotent
### 3. Skip silently when unconfigured
### 4. Fourth insight is dropped

- [ ] open item one
- [ ] open item two
- [x] closed item
`
	meta := ParseMeta(docWithContent("talk-notes", content))
	assert.Equal(t, "2026-02-01", meta.Date)
	assert.Equal(t, []string{"sync", "feishu"}, meta.Tags)
	assert.Equal(t, "One-way push keeps local files authoritative.", meta.Summary)
	require.Len(t, meta.Insights, 3)
	assert.Equal(t, "Hash the content, not the mtime", meta.Insights[0])
	assert.Equal(t, 2, meta.OpenItems)
}

func TestParseMeta_FallbackDateFromFilename(t *testing.T) {
	meta := ParseMeta(docWithContent("2026-03-04-standup", "# Standup\n\nNotes.\n"))
	assert.Equal(t, "2026-03-04", meta.Date)
	assert.Equal(t, "Notes.", meta.Summary)
}

func TestParseMeta_DefaultsToToday(t *testing.T) {
	meta := ParseMeta(docWithContent("undated", "# Undated\n"))
	assert.Equal(t, time.Now().Format("2006-01-02"), meta.Date)
}

func TestKnowledgeSubtype(t *testing.T) {
	assert.Equal(t, KnowledgeMethodology, knowledgeSubtype("knowledge/methodology/x.md"))
	assert.Equal(t, KnowledgeSOP, knowledgeSubtype("knowledge/sop/deploy.md"))
	assert.Equal(t, KnowledgeInsight, knowledgeSubtype("knowledge/insights/y.md"))
	assert.Equal(t, KnowledgeOther, knowledgeSubtype("knowledge/misc/z.md"))
}
