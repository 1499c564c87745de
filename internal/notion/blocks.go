package notion

import (
	"regexp"
	"strings"
)

// maxBlocksPerRequest is Notion's limit on children per create/append call.
const maxBlocksPerRequest = 100

// Block is one Notion block in API JSON shape.
type Block map[string]any

var orderedItemRe = regexp.MustCompile(`^\d+\.\s+`)

func richText(s string) []map[string]any {
	return []map[string]any{{"type": "text", "text": map[string]any{"content": s}}}
}

func simpleBlock(kind, text string) Block {
	return Block{
		"object": "block",
		"type":   kind,
		kind:     map[string]any{"rich_text": richText(text)},
	}
}

// MarkdownToBlocks converts vault Markdown into Notion block JSON.
// Headings past level three fold into heading_3; tables become a code
// block since the files never rely on rich table rendering.
func MarkdownToBlocks(markdown string) []Block {
	var blocks []Block
	lines := strings.Split(markdown, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "```"):
			lang := strings.TrimSpace(stripped[3:])
			if lang == "" {
				lang = "plain text"
			}
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			blocks = append(blocks, Block{
				"object": "block",
				"type":   "code",
				"code": map[string]any{
					"rich_text": richText(strings.Join(code, "\n")),
					"language":  lang,
				},
			})

		case strings.HasPrefix(stripped, "### "):
			blocks = append(blocks, simpleBlock("heading_3", stripped[4:]))

		case strings.HasPrefix(stripped, "## "):
			blocks = append(blocks, simpleBlock("heading_2", stripped[3:]))

		case strings.HasPrefix(stripped, "# "):
			blocks = append(blocks, simpleBlock("heading_1", stripped[2:]))

		case strings.HasPrefix(stripped, "#### "):
			blocks = append(blocks, simpleBlock("heading_3", stripped[5:]))

		case strings.HasPrefix(stripped, "- [ ] "), strings.HasPrefix(stripped, "- [x] "):
			blocks = append(blocks, Block{
				"object": "block",
				"type":   "to_do",
				"to_do": map[string]any{
					"rich_text": richText(stripped[6:]),
					"checked":   strings.HasPrefix(stripped, "- [x] "),
				},
			})

		case strings.HasPrefix(stripped, "- "), strings.HasPrefix(stripped, "* "):
			blocks = append(blocks, simpleBlock("bulleted_list_item", stripped[2:]))

		case orderedItemRe.MatchString(stripped):
			blocks = append(blocks, simpleBlock("numbered_list_item",
				orderedItemRe.ReplaceAllString(stripped, "")))

		case strings.HasPrefix(stripped, "> "):
			blocks = append(blocks, simpleBlock("quote", stripped[2:]))

		case stripped == "---" || stripped == "***" || stripped == "___":
			blocks = append(blocks, Block{"object": "block", "type": "divider", "divider": map[string]any{}})

		case strings.HasPrefix(stripped, "|"):
			table := []string{line}
			for i+1 < len(lines) && strings.Contains(lines[i+1], "|") {
				i++
				table = append(table, lines[i])
			}
			blocks = append(blocks, Block{
				"object": "block",
				"type":   "code",
				"code": map[string]any{
					"rich_text": richText(strings.Join(table, "\n")),
					"language":  "plain text",
				},
			})

		case stripped != "":
			blocks = append(blocks, simpleBlock("paragraph", stripped))
		}
	}

	return blocks
}

// capBlocks trims a block list to what one request may carry.
func capBlocks(blocks []Block) []Block {
	if len(blocks) > maxBlocksPerRequest {
		return blocks[:maxBlocksPerRequest]
	}
	return blocks
}
