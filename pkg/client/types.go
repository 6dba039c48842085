package client

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Content types accepted by the ingestion API.
const (
	TypeDocument = "document"
	TypeVideo    = "video"
)

// Document is an ingested file as listed by the API.
type Document struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	DisplayName string    `json:"display_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Concepts    []string  `json:"concepts,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ChunkCount  int       `json:"chunk_count,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Name returns the best human label for the document.
func (d Document) Name() string {
	switch {
	case d.DisplayName != "":
		return d.DisplayName
	case d.Title != "":
		return d.Title
	}
	return d.Filename
}

// documentList is the list response. Older servers return a bare array.
type documentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

func decodeDocuments(data []byte) ([]Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var docs []Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}

	var list documentList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// ListOptions filters document listings. Zero values match everything.
type ListOptions struct {
	Search   string
	Type     string
	Tag      string
	Category string
}

// DocumentQuery is the JSON body of a document search.
type DocumentQuery struct {
	Search   string   `json:"search,omitempty"`
	Type     string   `json:"type,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// FilterDocuments applies opts locally. Search is a case-insensitive
// substring match over filename, title, display name, description and tags.
func FilterDocuments(docs []Document, opts ListOptions) []Document {
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if opts.Type != "" && !strings.EqualFold(d.Type, opts.Type) {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(d.Category, opts.Category) {
			continue
		}
		if opts.Tag != "" && !slices.ContainsFunc(d.Tags, func(t string) bool {
			return strings.EqualFold(t, opts.Tag)
		}) {
			continue
		}
		if search != "" && !matches(d, search) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matches(d Document, needle string) bool {
	fields := append([]string{d.Filename, d.Title, d.DisplayName, d.Description}, d.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Metadata describes a file being uploaded.
type Metadata struct {
	Title       string   `json:"title"`
	DisplayName string   `json:"display_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate checks required fields.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrMissingTitle}
	}
	switch m.Type {
	case "", TypeDocument, TypeVideo:
	default:
		return &ValidationError{
			Field: "type",
			Err:   fmt.Errorf("%q is not one of %s, %s", m.Type, TypeDocument, TypeVideo),
		}
	}
	return nil
}

// fields returns the multipart form fields for a single upload.
func (m Metadata) fields() map[string]string {
	f := map[string]string{"title": m.Title}
	if m.DisplayName != "" {
		f["display_name"] = m.DisplayName
	}
	if m.Description != "" {
		f["description"] = m.Description
	}
	if m.Type != "" {
		f["type"] = m.Type
	}
	if m.Category != "" {
		f["category"] = m.Category
	}
	if len(m.Tags) > 0 {
		f["tags"] = strings.Join(m.Tags, ",")
	}
	return f
}

// UploadResult is the server's answer for one uploaded file.
type UploadResult struct {
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	ChunksCreated int    `json:"chunks_created,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// OK reports whether the file was accepted.
func (r UploadResult) OK() bool {
	return r.Error == "" && !strings.EqualFold(r.Status, "error") && !strings.EqualFold(r.Status, "failed")
}

// BulkUploadResult is the server's answer for a batch.
type BulkUploadResult struct {
	Results    []UploadResult `json:"results"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
}

// SystemPrompt is the server-held chat system prompt.
type SystemPrompt struct {
	Prompt    string `json:"prompt"`
	IsDefault bool   `json:"is_default"`
}

// Turn is a prior exchange sent as context with a chat query.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatQuery is the body of POST /api/chat/query/stream.
type ChatQuery struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	History   []Turn `json:"history,omitempty"`
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true, ".m4v": true,
}

// MetadataFromFilename derives upload metadata from a file name: the title
// is the base name without extension, with separators turned into spaces,
// and known video extensions are typed as video.
func MetadataFromFilename(name, defaultType string) Metadata {
	base := filepath.Base(name)
	ext := filepath.Ext(base)

	kind := defaultType
	if kind == "" {
		kind = TypeDocument
	}
	if videoExtensions[strings.ToLower(ext)] {
		kind = TypeVideo
	}

	title := strings.TrimSuffix(base, ext)
	title = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(title))
	if title == "" {
		title = base
	}

	return Metadata{Title: title, Type: kind}
}
