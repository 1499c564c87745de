package vault

import (
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Knowledge subtypes, derived from the subdirectory a note lives in.
const (
	KnowledgeMethodology = "methodology"
	KnowledgeSOP         = "sop"
	KnowledgeInsight     = "insight"
	KnowledgeOther       = "other"
)

// Meta is the extracted metadata an index row is built from. Frontmatter
// wins; inline markers are the fallback for files without one.
type Meta struct {
	Title     string   `yaml:"title"`
	Date      string   `yaml:"date"`
	Tags      []string `yaml:"tags"`
	Summary   string   `yaml:"summary"`
	Insights  []string `yaml:"-"`
	OpenItems int      `yaml:"-"`
	Subtype   string   `yaml:"-"`
}

var (
	dateRe       = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)
	inlineDateRe = regexp.MustCompile(`(?i)^\*{0,2}date\*{0,2}\s*[:：]\s*(\d{4}-\d{2}-\d{2})`)
	tagRe        = regexp.MustCompile(`#([^\s#]+)`)
	orderedRe    = regexp.MustCompile(`^\d+\.\s*`)
)

// ParseMeta extracts the index metadata for a document.
func ParseMeta(doc *Document) *Meta {
	meta := &Meta{Title: doc.Title, Subtype: knowledgeSubtype(doc.RelPath)}

	body := parseFrontmatter(string(doc.Content), meta)
	parseInline(body, meta)

	if meta.Summary == "" {
		meta.Summary = firstParagraph(body)
	}
	if meta.Date == "" {
		// fall back to a date embedded in the file name
		if m := dateRe.FindStringSubmatch(doc.Title); m != nil {
			meta.Date = m[1] + "-" + m[2] + "-" + m[3]
		} else {
			meta.Date = time.Now().Format("2006-01-02")
		}
	}
	if meta.Title == "" {
		meta.Title = doc.Title
	}
	return meta
}

// parseFrontmatter strips a leading YAML block and fills meta from it.
// Returns the remaining body.
func parseFrontmatter(content string, meta *Meta) string {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return content
	}

	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content
	}

	block := rest[:end]
	body := rest[end+4:]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	}

	var fm Meta
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return content
	}
	if fm.Title != "" {
		meta.Title = fm.Title
	}
	meta.Date = fm.Date
	meta.Tags = fm.Tags
	meta.Summary = fm.Summary
	return body
}

// parseInline scans the body for the conventional markers used across the
// vault: a bold date line, a tag line, a summary section, insight headings
// and open checkboxes.
func parseInline(body string, meta *Meta) {
	lines := strings.Split(body, "\n")

	inSummary := false
	inInsights := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if meta.Date == "" {
			if m := inlineDateRe.FindStringSubmatch(stripped); m != nil {
				meta.Date = m[1]
			}
		}

		// tag lines look like `**Tags**: #go #sync`
		if len(meta.Tags) == 0 && strings.Contains(strings.ToLower(stripped), "tags") && strings.Contains(stripped, "#") {
			for _, m := range tagRe.FindAllStringSubmatch(stripped, -1) {
				meta.Tags = append(meta.Tags, m[1])
			}
		}

		lower := strings.ToLower(stripped)
		if strings.HasPrefix(lower, "## summary") || strings.HasPrefix(lower, "## one-line summary") {
			inSummary = true
			continue
		}
		if inSummary && stripped != "" && !strings.HasPrefix(stripped, "#") && !strings.HasPrefix(stripped, "---") {
			if meta.Summary == "" {
				meta.Summary = truncate(stripped, 200)
			}
			inSummary = false
		}

		if strings.HasPrefix(lower, "## key insights") || strings.HasPrefix(lower, "## insights") {
			inInsights = true
			continue
		}
		if inInsights {
			switch {
			case strings.HasPrefix(stripped, "---"):
				inInsights = false
			case strings.HasPrefix(stripped, "## ") && !strings.HasPrefix(stripped, "###"):
				inInsights = false
			case strings.HasPrefix(stripped, "###"):
				insight := orderedRe.ReplaceAllString(strings.TrimSpace(stripped[3:]), "")
				if insight != "" && len(meta.Insights) < 3 {
					meta.Insights = append(meta.Insights, insight)
				}
			}
		}

		if strings.HasPrefix(stripped, "- [ ]") {
			meta.OpenItems++
		}
	}
}

func firstParagraph(body string) string {
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "---") {
			continue
		}
		return truncate(stripped, 200)
	}
	return ""
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func knowledgeSubtype(relPath string) string {
	lower := strings.ToLower(relPath)
	switch {
	case strings.Contains(lower, "methodolog"):
		return KnowledgeMethodology
	case strings.Contains(lower, "sop"):
		return KnowledgeSOP
	case strings.Contains(lower, "insight"):
		return KnowledgeInsight
	default:
		return KnowledgeOther
	}
}
