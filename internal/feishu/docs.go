package feishu

import (
	"context"
	"fmt"
)

const docBlockBatchSize = 50

// CreateDocument creates a cloud doc in the configured folder, writes the
// converted Markdown content and returns (document id, url).
func (c *Client) CreateDocument(ctx context.Context, title, content string) (string, string, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return "", "", err
	}

	var result struct {
		apiEnvelope
		Data struct {
			Document struct {
				DocumentID string `json:"document_id"`
			} `json:"document"`
		} `json:"data"`
	}
	resp, err := r.
		SetBody(map[string]string{
			"folder_token": c.cfg.FolderToken,
			"title":        title,
		}).
		SetSuccessResult(&result).
		Post("/docx/v1/documents")

	if err := c.classify("doc create", resp, err, &result.apiEnvelope); err != nil {
		return "", "", err
	}

	docID := result.Data.Document.DocumentID
	if err := c.appendBlocks(ctx, docID, MarkdownToBlocks(content)); err != nil {
		return "", "", err
	}
	return docID, c.docURLBase + docID, nil
}

// ReplaceDocumentContent overwrites the body of an existing doc in place:
// existing children are removed, then the converted content is appended.
func (c *Client) ReplaceDocumentContent(ctx context.Context, docID, content string) error {
	count, err := c.childBlockCount(ctx, docID)
	if err != nil {
		return err
	}

	if count > 0 {
		r, err := c.authed(ctx)
		if err != nil {
			return err
		}

		var result struct {
			apiEnvelope
		}
		resp, err := r.
			SetBody(map[string]int{
				"start_index": 0,
				"end_index":   count,
			}).
			SetSuccessResult(&result).
			Delete(fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children/batch_delete", docID, docID))

		if err := c.classify("doc clear", resp, err, &result.apiEnvelope); err != nil {
			return err
		}
	}

	return c.appendBlocks(ctx, docID, MarkdownToBlocks(content))
}

func (c *Client) childBlockCount(ctx context.Context, docID string) (int, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return 0, err
	}

	var result struct {
		apiEnvelope
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	resp, err := r.
		SetSuccessResult(&result).
		Get(fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, docID))

	if err := c.classify("doc children", resp, err, &result.apiEnvelope); err != nil {
		return 0, err
	}
	return len(result.Data.Items), nil
}

// appendBlocks writes blocks to the document end, batched to the API cap.
func (c *Client) appendBlocks(ctx context.Context, docID string, blocks []Block) error {
	for i := 0; i < len(blocks); i += docBlockBatchSize {
		end := i + docBlockBatchSize
		if end > len(blocks) {
			end = len(blocks)
		}

		r, err := c.authed(ctx)
		if err != nil {
			return err
		}

		var result struct {
			apiEnvelope
		}
		resp, err := r.
			SetBody(map[string]any{
				"children": blocks[i:end],
				"index":    -1,
			}).
			SetSuccessResult(&result).
			Post(fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, docID))

		if err := c.classify("doc append blocks", resp, err, &result.apiEnvelope); err != nil {
			return err
		}
	}
	return nil
}
