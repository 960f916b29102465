package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Row is one persisted document. Data carries the full attribute payload as
// returned by the store; Decode projects it onto a typed document.
type Row struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      json.RawMessage
}

func (r Row) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding row %s: %w", r.ID, err)
	}
	return nil
}

type rowMeta struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`
	UpdatedAt time.Time `json:"$updatedAt"`
}

func rowFromJSON(raw json.RawMessage) (Row, error) {
	var meta rowMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Row{}, fmt.Errorf("decoding row metadata: %w", err)
	}
	return Row{ID: meta.ID, CreatedAt: meta.CreatedAt, UpdatedAt: meta.UpdatedAt, Data: raw}, nil
}

type RowList struct {
	Total int
	Rows  []Row
}

func (c *Client) rowsPath(tableID string) string {
	return fmt.Sprintf("/databases/%s/tables/%s/rows", c.databaseID, tableID)
}

// CreateRow persists a new document under the caller-supplied row id.
func (c *Client) CreateRow(ctx context.Context, tableID, rowID string, data map[string]any) (Row, error) {
	payload := map[string]any{
		"rowId": rowID,
		"data":  data,
	}

	raw, err := c.doRaw(ctx, "tables", "create_row", "POST", c.rowsPath(tableID), nil, payload)
	if err != nil {
		return Row{}, err
	}
	return rowFromJSON(raw)
}

// GetRow fetches a document by primary key.
func (c *Client) GetRow(ctx context.Context, tableID, rowID string) (Row, error) {
	raw, err := c.doRaw(ctx, "tables", "get_row", "GET", c.rowsPath(tableID)+"/"+url.PathEscape(rowID), nil, nil)
	if err != nil {
		return Row{}, err
	}
	return rowFromJSON(raw)
}

// UpdateRow applies a partial attribute update to an existing document.
func (c *Client) UpdateRow(ctx context.Context, tableID, rowID string, data map[string]any) (Row, error) {
	payload := map[string]any{"data": data}

	raw, err := c.doRaw(ctx, "tables", "update_row", "PATCH", c.rowsPath(tableID)+"/"+url.PathEscape(rowID), nil, payload)
	if err != nil {
		return Row{}, err
	}
	return rowFromJSON(raw)
}

// ListRows lists documents matching the given predicates.
func (c *Client) ListRows(ctx context.Context, tableID string, queries ...Query) (RowList, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.encode())
	}

	raw, err := c.doRaw(ctx, "tables", "list_rows", "GET", c.rowsPath(tableID), params, nil)
	if err != nil {
		return RowList{}, err
	}

	var body struct {
		Total int               `json:"total"`
		Rows  []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return RowList{}, fmt.Errorf("list_rows: decoding response: %w", err)
	}

	list := RowList{Total: body.Total, Rows: make([]Row, 0, len(body.Rows))}
	for _, rr := range body.Rows {
		row, err := rowFromJSON(rr)
		if err != nil {
			return RowList{}, fmt.Errorf("list_rows: %w", err)
		}
		list.Rows = append(list.Rows, row)
	}
	return list, nil
}

func (c *Client) doRaw(ctx context.Context, service, operation, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	var raw []byte
	var err error
	if payload != nil {
		b, merr := json.Marshal(payload)
		if merr != nil {
			return nil, fmt.Errorf("%s: encoding payload: %w", operation, merr)
		}
		raw, err = c.do(ctx, service, operation, method, path, query, "application/json", bytes.NewReader(b))
	} else {
		raw, err = c.do(ctx, service, operation, method, path, query, "", nil)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
