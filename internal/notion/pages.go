package notion

import (
	"context"
	"fmt"
	"strings"
)

// maxSummaryLen caps the Summary property; Notion rejects longer rich text.
const maxSummaryLen = 2000

// Page identifies one database page.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PageMeta carries the database properties set alongside the content.
type PageMeta struct {
	Title   string
	Date    string
	Tags    []string
	Summary string
}

func pageProperties(meta PageMeta) map[string]any {
	props := map[string]any{
		"Title": map[string]any{
			"title": []map[string]any{{"text": map[string]any{"content": meta.Title}}},
		},
	}
	if meta.Date != "" {
		props["Date"] = map[string]any{"date": map[string]any{"start": meta.Date}}
	}
	if len(meta.Tags) > 0 {
		var opts []map[string]any
		for _, tag := range meta.Tags {
			opts = append(opts, map[string]any{"name": tag})
		}
		props["Tags"] = map[string]any{"multi_select": opts}
	}
	if meta.Summary != "" {
		summary := meta.Summary
		if len(summary) > maxSummaryLen {
			summary = summary[:maxSummaryLen]
		}
		props["Summary"] = map[string]any{"rich_text": richText(summary)}
	}
	return props
}

// CreatePage creates a new database page with the converted content.
func (c *Client) CreatePage(ctx context.Context, meta PageMeta, markdown string) (*Page, error) {
	var result Page
	var apiErr apiError

	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"parent":     map[string]any{"database_id": c.cfg.DatabaseID},
			"properties": pageProperties(meta),
			"children":   capBlocks(MarkdownToBlocks(markdown)),
		}).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Post("/pages")

	if err := c.classify("create page", resp, err, &apiErr); err != nil {
		return nil, err
	}
	if result.URL == "" {
		result.URL = pageURL(result.ID)
	}
	return &result, nil
}

// UpdatePageProperties refreshes the database properties of a page.
func (c *Client) UpdatePageProperties(ctx context.Context, pageID string, meta PageMeta) error {
	var apiErr apiError
	resp, err := c.request(ctx).
		SetBody(map[string]any{"properties": pageProperties(meta)}).
		SetErrorResult(&apiErr).
		Patch("/pages/" + pageID)

	return c.classify("update page properties", resp, err, &apiErr)
}

// ReplacePageContent deletes the page's existing blocks and appends the
// converted content in their place.
func (c *Client) ReplacePageContent(ctx context.Context, pageID, markdown string) error {
	existing, err := c.listChildren(ctx, pageID)
	if err != nil {
		return err
	}
	for _, blockID := range existing {
		if err := c.deleteBlock(ctx, blockID); err != nil {
			return err
		}
	}

	var apiErr apiError
	resp, err := c.request(ctx).
		SetBody(map[string]any{"children": capBlocks(MarkdownToBlocks(markdown))}).
		SetErrorResult(&apiErr).
		Patch(fmt.Sprintf("/blocks/%s/children", pageID))

	return c.classify("append blocks", resp, err, &apiErr)
}

// QueryByTitle finds the database page whose Title property equals title.
// Returns nil when no page matches.
func (c *Client) QueryByTitle(ctx context.Context, title string) (*Page, error) {
	var result struct {
		Results []Page `json:"results"`
	}
	var apiErr apiError

	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"filter": map[string]any{
				"property": "Title",
				"title":    map[string]any{"equals": title},
			},
			"page_size": 1,
		}).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Post(fmt.Sprintf("/databases/%s/query", c.cfg.DatabaseID))

	if err := c.classify("query database", resp, err, &apiErr); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	page := result.Results[0]
	if page.URL == "" {
		page.URL = pageURL(page.ID)
	}
	return &page, nil
}

func (c *Client) listChildren(ctx context.Context, blockID string) ([]string, error) {
	var result struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	var apiErr apiError

	resp, err := c.request(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Get(fmt.Sprintf("/blocks/%s/children", blockID))

	if err := c.classify("list blocks", resp, err, &apiErr); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Results))
	for _, block := range result.Results {
		ids = append(ids, block.ID)
	}
	return ids, nil
}

func (c *Client) deleteBlock(ctx context.Context, blockID string) error {
	var apiErr apiError
	resp, err := c.request(ctx).
		SetErrorResult(&apiErr).
		Delete("/blocks/" + blockID)

	return c.classify("delete block", resp, err, &apiErr)
}

func pageURL(id string) string {
	return "https://notion.so/" + strings.ReplaceAll(id, "-", "")
}
