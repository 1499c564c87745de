package vault

import (
	"regexp"
	"strings"
	"time"
)

// Thread categories, statuses and priorities as tracked in the bitable.
const (
	CategoryFollowUp   = "follow-up"
	CategoryIdea       = "idea"
	CategoryHypothesis = "hypothesis"
	CategoryDebt       = "tech-debt"
	CategoryOther      = "other"

	StatusPending = "pending"
	StatusDone    = "done"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ThreadItem is one entry of the open-threads tracker.
type ThreadItem struct {
	Title    string
	Category string
	Status   string
	Priority string
	Body     string
	Source   string
	Date     string
}

var (
	sourceRe    = regexp.MustCompile(`\(from[:：]?\s*([^)]+)\)`)
	tableDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseThreads extracts thread items from the tracker file. Both checkbox
// entries and Markdown table rows are supported; `## ` headings set the
// category for the entries below them.
func ParseThreads(content []byte) []ThreadItem {
	var items []ThreadItem

	category := CategoryOther
	inTable := false

	for _, line := range strings.Split(string(content), "\n") {
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "## "):
			category = categoryFromHeading(stripped[3:])
			inTable = false

		case isTableHeader(stripped):
			inTable = true

		case strings.HasPrefix(stripped, "|") && strings.Contains(stripped, "---"):
			// table separator row

		case inTable && strings.HasPrefix(stripped, "|"):
			if item, ok := parseTableRow(stripped, category); ok {
				items = append(items, item)
			}

		case strings.HasPrefix(stripped, "- [ ]") || strings.HasPrefix(stripped, "- [x]"):
			items = append(items, parseCheckboxEntry(stripped, category))
		}
	}

	return items
}

func categoryFromHeading(heading string) string {
	lower := strings.ToLower(strings.TrimSpace(heading))
	switch {
	case strings.Contains(lower, "follow"), strings.Contains(lower, "question"):
		return CategoryFollowUp
	case strings.Contains(lower, "idea"):
		return CategoryIdea
	case strings.Contains(lower, "hypothes"), strings.Contains(lower, "verify"):
		return CategoryHypothesis
	case strings.Contains(lower, "debt"):
		return CategoryDebt
	default:
		return CategoryOther
	}
}

func isTableHeader(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	lower := strings.ToLower(line)
	return strings.Contains(lower, "date") || strings.Contains(lower, "item") ||
		strings.Contains(lower, "idea") || strings.Contains(lower, "hypothes")
}

// parseTableRow expects `| date | title | source | next | priority |`,
// trailing cells optional.
func parseTableRow(line, category string) (ThreadItem, bool) {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) < 2 {
		return ThreadItem{}, false
	}

	date := cells[0]
	if !tableDateRe.MatchString(date) {
		return ThreadItem{}, false
	}

	title := cells[1]
	item := ThreadItem{
		Title:    title,
		Category: category,
		Status:   StatusPending,
		Priority: PriorityMedium,
		Body:     title,
		Date:     date,
	}
	if len(cells) > 2 {
		item.Source = cells[2]
	}
	if len(cells) > 3 && cells[3] != "" {
		item.Body = title + "\nnext: " + cells[3]
	}
	if len(cells) > 4 {
		item.Priority = normalizePriority(cells[4])
	}
	return item, true
}

func parseCheckboxEntry(line, category string) ThreadItem {
	done := strings.HasPrefix(line, "- [x]")
	body := strings.TrimSpace(line[5:])

	title := body
	source := ""
	if m := sourceRe.FindStringSubmatch(body); m != nil {
		source = strings.TrimSpace(m[1])
		title = strings.TrimSpace(sourceRe.ReplaceAllString(body, ""))
	}

	status := StatusPending
	if done {
		status = StatusDone
	}

	return ThreadItem{
		Title:    title,
		Category: category,
		Status:   status,
		Priority: PriorityMedium,
		Body:     body,
		Source:   source,
		Date:     time.Now().Format("2006-01-02"),
	}
}

func normalizePriority(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case PriorityHigh, "p0", "urgent":
		return PriorityHigh
	case PriorityLow, "p2":
		return PriorityLow
	default:
		return PriorityMedium
	}
}
