package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"time"
)

// File is a stored blob. ID is the short, stable identifier recorded on
// documents in place of a full URL.
type File struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"sizeOriginal"`
}

// CreateFile uploads raw bytes under the given file id and name.
func (c *Client) CreateFile(ctx context.Context, fileID, filename string, content []byte) (File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("fileId", fileID); err != nil {
		return File{}, fmt.Errorf("create_file: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return File{}, fmt.Errorf("create_file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return File{}, fmt.Errorf("create_file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return File{}, fmt.Errorf("create_file: %w", err)
	}

	path := fmt.Sprintf("/storage/buckets/%s/files", c.bucketID)
	raw, err := c.do(ctx, "storage", "create_file", "POST", path, nil, mw.FormDataContentType(), &buf)
	if err != nil {
		return File{}, err
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("create_file: decoding response: %w", err)
	}
	return f, nil
}

// FileViewURL derives the browser-viewable URL for a stored file id. Only the
// short id is persisted on documents; the URL is rebuilt on read.
func (c *Client) FileViewURL(fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		c.endpoint, c.bucketID, url.PathEscape(fileID), url.QueryEscape(c.projectID))
}
