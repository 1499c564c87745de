package notion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btype(b Block) string {
	return b["type"].(string)
}

func btext(b Block) string {
	body := b[btype(b)].(map[string]any)
	runs := body["rich_text"].([]map[string]any)
	text := runs[0]["text"].(map[string]any)
	return text["content"].(string)
}

func TestMarkdownToBlocks_Headings(t *testing.T) {
	blocks := MarkdownToBlocks("# One\n## Two\n### Three\n#### Four\n")

	require.Len(t, blocks, 4)
	assert.Equal(t, "heading_1", btype(blocks[0]))
	assert.Equal(t, "heading_2", btype(blocks[1]))
	assert.Equal(t, "heading_3", btype(blocks[2]))
	assert.Equal(t, "heading_3", btype(blocks[3]))
	assert.Equal(t, "Four", btext(blocks[3]))
}

func TestMarkdownToBlocks_Lists(t *testing.T) {
	blocks := MarkdownToBlocks("- plain\n1. first\n- [ ] open\n- [x] closed\n")

	require.Len(t, blocks, 4)
	assert.Equal(t, "bulleted_list_item", btype(blocks[0]))
	assert.Equal(t, "numbered_list_item", btype(blocks[1]))
	assert.Equal(t, "first", btext(blocks[1]))

	assert.Equal(t, "to_do", btype(blocks[2]))
	assert.Equal(t, false, blocks[2]["to_do"].(map[string]any)["checked"])
	assert.Equal(t, "to_do", btype(blocks[3]))
	assert.Equal(t, true, blocks[3]["to_do"].(map[string]any)["checked"])
}

func TestMarkdownToBlocks_CodeFence(t *testing.T) {
	blocks := MarkdownToBlocks("```go\nfmt.Println(1)\nreturn\n```\n")

	require.Len(t, blocks, 1)
	assert.Equal(t, "code", btype(blocks[0]))
	assert.Equal(t, "go", blocks[0]["code"].(map[string]any)["language"])
	assert.Equal(t, "fmt.Println(1)\nreturn", btext(blocks[0]))
}

func TestMarkdownToBlocks_TableBecomesCode(t *testing.T) {
	blocks := MarkdownToBlocks("| a | b |\n|---|---|\n| 1 | 2 |\n\nafter\n")

	require.Len(t, blocks, 2)
	assert.Equal(t, "code", btype(blocks[0]))
	assert.Contains(t, btext(blocks[0]), "| a | b |")
	assert.Contains(t, btext(blocks[0]), "| 1 | 2 |")
	assert.Equal(t, "paragraph", btype(blocks[1]))
}

func TestMarkdownToBlocks_QuoteDividerParagraph(t *testing.T) {
	blocks := MarkdownToBlocks("> quoted\n\n---\n\nplain text\n")

	require.Len(t, blocks, 3)
	assert.Equal(t, "quote", btype(blocks[0]))
	assert.Equal(t, "divider", btype(blocks[1]))
	assert.Equal(t, "paragraph", btype(blocks[2]))
}

func TestCapBlocks(t *testing.T) {
	long := strings.Repeat("line\n\n", maxBlocksPerRequest+20)
	blocks := capBlocks(MarkdownToBlocks(long))
	assert.Len(t, blocks, maxBlocksPerRequest)
}
