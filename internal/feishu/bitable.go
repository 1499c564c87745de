package feishu

import (
	"context"
	"fmt"
)

// Bitable field type ids.
const (
	fieldText        = 1
	fieldNumber      = 2
	fieldSelect      = 3
	fieldMultiSelect = 4
	fieldTypeDate        = 5
	fieldLink        = 15
)

// Table keys. The bitable holds one data table per content kind.
const (
	TableThreads   = "threads"
	TableArchives  = "archives"
	TableKnowledge = "knowledge"
)

type tableField struct {
	FieldName string         `json:"field_name"`
	Type      int            `json:"type"`
	Property  map[string]any `json:"property,omitempty"`
}

type tableConfig struct {
	Name   string
	Fields []tableField
}

func selectOptions(names ...string) map[string]any {
	opts := make([]map[string]string, 0, len(names))
	for _, n := range names {
		opts = append(opts, map[string]string{"name": n})
	}
	return map[string]any{"options": opts}
}

// tableConfigs describes the bitable schema provisioned by `notesync init`.
var tableConfigs = map[string]tableConfig{
	TableThreads: {
		Name: "Threads",
		Fields: []tableField{
			{FieldName: "Title", Type: fieldText},
			{FieldName: "Category", Type: fieldSelect, Property: selectOptions("follow-up", "idea", "hypothesis", "tech-debt", "other")},
			{FieldName: "Status", Type: fieldSelect, Property: selectOptions("pending", "in-progress", "done", "parked")},
			{FieldName: "Priority", Type: fieldSelect, Property: selectOptions("high", "medium", "low")},
			{FieldName: "Content", Type: fieldText},
			{FieldName: "Source", Type: fieldText},
			{FieldName: "Created", Type: fieldTypeDate},
		},
	},
	TableArchives: {
		Name: "Archives",
		Fields: []tableField{
			{FieldName: "Date", Type: fieldTypeDate},
			{FieldName: "Topic", Type: fieldText},
			{FieldName: "Summary", Type: fieldText},
			{FieldName: "Tags", Type: fieldMultiSelect, Property: selectOptions()},
			{FieldName: "Insights", Type: fieldText},
			{FieldName: "OpenItems", Type: fieldNumber},
			{FieldName: "Link", Type: fieldLink},
		},
	},
	TableKnowledge: {
		Name: "Knowledge",
		Fields: []tableField{
			{FieldName: "Title", Type: fieldText},
			{FieldName: "Type", Type: fieldSelect, Property: selectOptions("methodology", "sop", "insight", "other")},
			{FieldName: "Summary", Type: fieldText},
			{FieldName: "Created", Type: fieldTypeDate},
			{FieldName: "Link", Type: fieldLink},
		},
	},
}

// BitableRecord is one row as returned by the search endpoint.
type BitableRecord struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// CreateBitable creates a new bitable app in the configured folder and
// returns its app token.
func (c *Client) CreateBitable(ctx context.Context, name string) (string, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		apiEnvelope
		Data struct {
			App struct {
				AppToken string `json:"app_token"`
			} `json:"app"`
		} `json:"data"`
	}
	resp, err := r.
		SetBody(map[string]string{
			"name":         name,
			"folder_token": c.cfg.FolderToken,
		}).
		SetSuccessResult(&result).
		Post("/bitable/v1/apps")

	if err := c.classify("bitable create", resp, err, &result.apiEnvelope); err != nil {
		return "", err
	}
	return result.Data.App.AppToken, nil
}

// ListTables maps table names to ids for the configured bitable.
func (c *Client) ListTables(ctx context.Context, appToken string) (map[string]string, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	var result struct {
		apiEnvelope
		Data struct {
			Items []struct {
				TableID string `json:"table_id"`
				Name    string `json:"name"`
			} `json:"items"`
		} `json:"data"`
	}
	resp, err := r.
		SetSuccessResult(&result).
		Get(fmt.Sprintf("/bitable/v1/apps/%s/tables", appToken))

	if err := c.classify("bitable list tables", resp, err, &result.apiEnvelope); err != nil {
		return nil, err
	}

	tables := make(map[string]string, len(result.Data.Items))
	for _, item := range result.Data.Items {
		tables[item.Name] = item.TableID
	}
	return tables, nil
}

// createTable provisions one data table, tolerating an existing table with
// the same name.
func (c *Client) createTable(ctx context.Context, appToken string, cfg tableConfig) (string, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		apiEnvelope
		Data struct {
			TableID string `json:"table_id"`
		} `json:"data"`
	}
	resp, err := r.
		SetBody(map[string]any{
			"table": map[string]any{
				"name":              cfg.Name,
				"default_view_name": "Grid",
				"fields":            cfg.Fields,
			},
		}).
		SetSuccessResult(&result).
		Post(fmt.Sprintf("/bitable/v1/apps/%s/tables", appToken))

	if result.Code == codeTableExists {
		tables, lerr := c.ListTables(ctx, appToken)
		if lerr != nil {
			return "", lerr
		}
		return tables[cfg.Name], nil
	}
	if err := c.classify("bitable create table", resp, err, &result.apiEnvelope); err != nil {
		return "", err
	}
	return result.Data.TableID, nil
}

// EnsureTables provisions the full bitable schema and returns the table
// key → id mapping.
func (c *Client) EnsureTables(ctx context.Context, appToken string) (map[string]string, error) {
	existing, err := c.ListTables(ctx, appToken)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(tableConfigs))
	for key, cfg := range tableConfigs {
		if id, ok := existing[cfg.Name]; ok {
			ids[key] = id
			continue
		}
		id, err := c.createTable(ctx, appToken, cfg)
		if err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, nil
}

// TableID resolves a table key to its id, listing tables on first use.
func (c *Client) TableID(ctx context.Context, appToken, key string) (string, error) {
	cfg, ok := tableConfigs[key]
	if !ok {
		return "", fmt.Errorf("unknown table key: %s", key)
	}
	tables, err := c.ListTables(ctx, appToken)
	if err != nil {
		return "", err
	}
	id, ok := tables[cfg.Name]
	if !ok {
		return "", fmt.Errorf("table %q not provisioned, run `notesync init`", cfg.Name)
	}
	return id, nil
}

// AddRecord inserts a row and returns its record id.
func (c *Client) AddRecord(ctx context.Context, appToken, tableID string, fields map[string]any) (string, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return "", err
	}

	var result struct {
		apiEnvelope
		Data struct {
			Record BitableRecord `json:"record"`
		} `json:"data"`
	}
	resp, err := r.
		SetBody(map[string]any{"fields": fields}).
		SetSuccessResult(&result).
		Post(fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records", appToken, tableID))

	if err := c.classify("bitable add record", resp, err, &result.apiEnvelope); err != nil {
		return "", err
	}
	return result.Data.Record.RecordID, nil
}

// UpdateRecord overwrites the fields of an existing row.
func (c *Client) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]any) error {
	r, err := c.authed(ctx)
	if err != nil {
		return err
	}

	var result struct {
		apiEnvelope
	}
	resp, err := r.
		SetBody(map[string]any{"fields": fields}).
		SetSuccessResult(&result).
		Put(fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records/%s", appToken, tableID, recordID))

	return c.classify("bitable update record", resp, err, &result.apiEnvelope)
}

// SearchRecords queries rows. filter may be nil; limit caps the page size.
func (c *Client) SearchRecords(ctx context.Context, appToken, tableID string, filter map[string]any, limit int) ([]BitableRecord, error) {
	r, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	if filter != nil {
		body["filter"] = filter
	}

	var result struct {
		apiEnvelope
		Data struct {
			Items []BitableRecord `json:"items"`
		} `json:"data"`
	}
	request := r.
		SetBody(body).
		SetSuccessResult(&result)
	if limit > 0 {
		request.SetQueryParam("page_size", fmt.Sprintf("%d", limit))
	}
	resp, err := request.Post(fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records/search", appToken, tableID))

	if err := c.classify("bitable search", resp, err, &result.apiEnvelope); err != nil {
		return nil, err
	}
	return result.Data.Items, nil
}

// FindRecord returns the first row whose field equals value, or nil.
func (c *Client) FindRecord(ctx context.Context, appToken, tableID, fieldName, value string) (*BitableRecord, error) {
	filter := map[string]any{
		"conjunction": "and",
		"conditions": []map[string]any{{
			"field_name": fieldName,
			"operator":   "is",
			"value":      []string{value},
		}},
	}
	records, err := c.SearchRecords(ctx, appToken, tableID, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
