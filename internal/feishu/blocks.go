package feishu

import (
	"strings"
)

// Feishu docx block type ids.
const (
	blockText     = 2
	blockHeading1 = 3
	blockHeading2 = 4
	blockHeading3 = 5
	blockBullet   = 12
	blockOrdered  = 13
	blockCode     = 14
	blockQuote    = 19
	blockDivider  = 22
)

// Block is one docx block in wire form.
type Block map[string]any

func textRuns(content string) map[string]any {
	return map[string]any{
		"elements": []map[string]any{
			{"text_run": map[string]any{"content": content}},
		},
	}
}

func textBlock(blockType int, key, content string) Block {
	return Block{
		"block_type": blockType,
		key:          textRuns(content),
	}
}

// MarkdownToBlocks converts Markdown into docx blocks. Headings, lists,
// checkboxes, quotes, fenced code, dividers and tables (flattened to text
// rows) are supported; everything else becomes a paragraph.
func MarkdownToBlocks(markdown string) []Block {
	var blocks []Block
	lines := strings.Split(markdown, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			continue
		}

		// fenced code block
		if strings.HasPrefix(stripped, "```") {
			var codeLines []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				codeLines = append(codeLines, lines[i])
			}
			code := strings.Join(codeLines, "\n")
			if strings.TrimSpace(code) != "" {
				block := textBlock(blockCode, "code", code)
				block["code"].(map[string]any)["language"] = 1
				blocks = append(blocks, block)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "# "):
			if text := strings.TrimSpace(line[2:]); text != "" {
				blocks = append(blocks, textBlock(blockHeading1, "heading1", text))
			}

		case strings.HasPrefix(line, "## "):
			if text := strings.TrimSpace(line[3:]); text != "" {
				blocks = append(blocks, textBlock(blockHeading2, "heading2", text))
			}

		case strings.HasPrefix(line, "### "):
			if text := strings.TrimSpace(line[4:]); text != "" {
				blocks = append(blocks, textBlock(blockHeading3, "heading3", text))
			}

		case strings.HasPrefix(stripped, "- ") || strings.HasPrefix(stripped, "* "):
			content := strings.TrimSpace(stripped[2:])
			// checkboxes flatten to plain bullet content
			if strings.HasPrefix(content, "[ ]") || strings.HasPrefix(content, "[x]") {
				content = strings.TrimSpace(content[3:])
			}
			if content != "" {
				blocks = append(blocks, textBlock(blockBullet, "bullet", content))
			}

		case isOrderedItem(stripped):
			_, content, _ := strings.Cut(stripped, ". ")
			if content = strings.TrimSpace(content); content != "" {
				blocks = append(blocks, textBlock(blockOrdered, "ordered", content))
			}

		case strings.HasPrefix(stripped, "> "):
			if content := strings.TrimSpace(stripped[2:]); content != "" {
				blocks = append(blocks, textBlock(blockQuote, "quote", content))
			}

		case stripped == "---" || stripped == "***" || stripped == "___":
			blocks = append(blocks, Block{"block_type": blockDivider, "divider": map[string]any{}})

		case strings.Contains(stripped, "|"):
			if isTableSeparator(stripped) {
				continue
			}
			var cells []string
			for _, cell := range strings.Split(stripped, "|") {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				blocks = append(blocks, textBlock(blockText, "text", strings.Join(cells, " | ")))
			}

		default:
			blocks = append(blocks, textBlock(blockText, "text", stripped))
		}
	}

	return blocks
}

func isOrderedItem(line string) bool {
	if line == "" || line[0] < '1' || line[0] > '9' {
		return false
	}
	return strings.Contains(line, ". ")
}

func isTableSeparator(line string) bool {
	trimmed := strings.NewReplacer("|", "", "-", "", ":", "", " ", "").Replace(line)
	return trimmed == ""
}
