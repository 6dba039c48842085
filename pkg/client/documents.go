package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ListDocuments returns the ingested documents matching opts. The filter is
// sent to the server and applied again locally, so servers that ignore the
// query parameters still produce filtered output.
func (c *Client) ListDocuments(ctx context.Context, opts ListOptions) ([]Document, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	if opts.Tag != "" {
		query.Set("tag", opts.Tag)
	}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}

	req, err := c.newRequest(ctx, http.MethodGet, documentsPath, query, nil)
	if err != nil {
		return nil, err
	}

	docs, err := c.fetchDocuments(req)
	if err != nil {
		return nil, err
	}

	return FilterDocuments(docs, opts), nil
}

// SearchDocuments posts a structured query to the document collection.
func (c *Client) SearchDocuments(ctx context.Context, q DocumentQuery) ([]Document, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, documentsPath, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.fetchDocuments(req)
}

func (c *Client) fetchDocuments(req *http.Request) ([]Document, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	docs, err := decodeDocuments(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document list: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document by filename. Deleting a document that no
// longer exists returns an error matching ErrNotFound.
func (c *Client) DeleteDocument(ctx context.Context, filename string) error {
	if filename == "" {
		return &ValidationError{Field: "filename", Err: ErrMissingFile}
	}
	return c.doJSON(ctx, http.MethodDelete, documentsPath+"/"+url.PathEscape(filename), nil, nil, nil)
}

// DownloadDocument streams the original file into w and returns the number
// of bytes written.
func (c *Client) DownloadDocument(ctx context.Context, filename string, w io.Writer) (int64, error) {
	if filename == "" {
		return 0, &ValidationError{Field: "filename", Err: ErrMissingFile}
	}

	req, err := c.newRequest(ctx, http.MethodGet, documentsPath+"/"+url.PathEscape(filename)+"/download", nil, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", filename, err)
	}
	return n, nil
}
