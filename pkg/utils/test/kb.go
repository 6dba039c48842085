// Package testutils provides an in-memory knowledge-base API for tests of the
// client and the kb commands.
package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/kbconsole/pkg/client"
)

// DefaultPrompt is the system prompt a fresh FakeKB serves.
const DefaultPrompt = "You are a helpful assistant."

// FakeKB is an in-memory stand-in for the knowledge-base API. Uploaded files
// become documents, the system prompt can be read, replaced and reset, and
// chat queries are answered with an echo unless a stream body is set.
type FakeKB struct {
	*httptest.Server

	mu       sync.Mutex
	docs     map[string]client.Document
	files    map[string][]byte
	prompt   string
	requests atomic.Int32

	lastForm   map[string][]string
	promptBody map[string]any

	// chat, when set, is written verbatim as the stream body.
	chat string
}

// NewFakeKB starts a FakeKB. Callers must Close it.
func NewFakeKB() *FakeKB {
	kb := &FakeKB{
		docs:   map[string]client.Document{},
		files:  map[string][]byte{},
		prompt: DefaultPrompt,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ingestion/documents", kb.list)
	mux.HandleFunc("POST /api/ingestion/documents", kb.search)
	mux.HandleFunc("DELETE /api/ingestion/documents/{filename}", kb.remove)
	mux.HandleFunc("GET /api/ingestion/documents/{filename}/download", kb.download)
	mux.HandleFunc("POST /api/ingestion/upload", kb.upload)
	mux.HandleFunc("POST /api/ingestion/bulk-upload", kb.bulkUpload)
	mux.HandleFunc("GET /api/ingestion/system-prompt", kb.getPrompt)
	mux.HandleFunc("PUT /api/ingestion/system-prompt", kb.putPrompt)
	mux.HandleFunc("POST /api/ingestion/system-prompt/reset", kb.resetPrompt)
	mux.HandleFunc("POST /api/chat/query/stream", kb.stream)

	kb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kb.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	return kb
}

// Add stores a document and its file content.
func (kb *FakeKB) Add(doc client.Document, content string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.docs[doc.Filename] = doc
	kb.files[doc.Filename] = []byte(content)
}

// SetStream makes chat queries answer with body verbatim.
func (kb *FakeKB) SetStream(body string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.chat = body
}

// Form returns the non-file fields of the most recent upload.
func (kb *FakeKB) Form() map[string][]string {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.lastForm
}

// Requests returns the number of requests served so far.
func (kb *FakeKB) Requests() int32 {
	return kb.requests.Load()
}

// Has reports whether a document with filename is stored.
func (kb *FakeKB) Has(filename string) bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	_, ok := kb.docs[filename]
	return ok
}

// PromptBody returns the decoded body of the most recent prompt update.
func (kb *FakeKB) PromptBody() map[string]any {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.promptBody
}

// Prompt returns the current system prompt.
func (kb *FakeKB) Prompt() string {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.prompt
}

func (kb *FakeKB) list(w http.ResponseWriter, _ *http.Request) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	docs := make([]client.Document, 0, len(kb.docs))
	for _, d := range kb.docs {
		docs = append(docs, d)
	}
	writeJSON(w, map[string]any{"documents": docs, "total": len(docs)})
}

func (kb *FakeKB) search(w http.ResponseWriter, r *http.Request) {
	var q client.DocumentQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	docs := []client.Document{}
	for _, d := range kb.docs {
		if q.Type != "" && d.Type != q.Type {
			continue
		}
		if q.Search != "" && !strings.Contains(d.Title, q.Search) {
			continue
		}
		docs = append(docs, d)
	}
	// Bare array, as older servers answer.
	writeJSON(w, docs)
}

func (kb *FakeKB) remove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if _, ok := kb.docs[name]; !ok {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "Document not found"})
		return
	}
	delete(kb.docs, name)
	delete(kb.files, name)
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (kb *FakeKB) download(w http.ResponseWriter, r *http.Request) {
	kb.mu.Lock()
	data, ok := kb.files[r.PathValue("filename")]
	kb.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (kb *FakeKB) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	kb.mu.Lock()
	kb.lastForm = r.MultipartForm.Value
	kb.docs[header.Filename] = client.Document{
		Filename: header.Filename,
		Title:    r.FormValue("title"),
		Type:     r.FormValue("type"),
		Size:     int64(len(data)),
	}
	kb.files[header.Filename] = data
	kb.mu.Unlock()

	writeJSON(w, client.UploadResult{
		Filename:      header.Filename,
		Status:        "success",
		ChunksCreated: 3,
	})
}

func (kb *FakeKB) bulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var meta []client.Metadata
	if err := json.Unmarshal([]byte(r.FormValue("metadata")), &meta); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) != len(meta) {
		http.Error(w, "metadata count mismatch", http.StatusBadRequest)
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	result := client.BulkUploadResult{}
	for i, fh := range files {
		kb.docs[fh.Filename] = client.Document{Filename: fh.Filename, Title: meta[i].Title, Size: fh.Size}
		result.Results = append(result.Results, client.UploadResult{Filename: fh.Filename, Status: "success"})
		result.Successful++
	}
	writeJSON(w, result)
}

func (kb *FakeKB) getPrompt(w http.ResponseWriter, _ *http.Request) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	writeJSON(w, client.SystemPrompt{Prompt: kb.prompt, IsDefault: kb.prompt == DefaultPrompt})
}

func (kb *FakeKB) putPrompt(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	prompt, ok := body["prompt"].(string)
	if !ok {
		http.Error(w, "prompt must be a string", http.StatusUnprocessableEntity)
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.promptBody = body
	kb.prompt = prompt
	writeJSON(w, client.SystemPrompt{Prompt: kb.prompt})
}

func (kb *FakeKB) resetPrompt(w http.ResponseWriter, _ *http.Request) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.prompt = DefaultPrompt
	writeJSON(w, client.SystemPrompt{Prompt: kb.prompt, IsDefault: true})
}

func (kb *FakeKB) stream(w http.ResponseWriter, r *http.Request) {
	var q client.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kb.mu.Lock()
	body := kb.chat
	kb.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	if body != "" {
		_, _ = io.WriteString(w, body)
		return
	}
	fmt.Fprintf(w, "data: {\"type\":\"content\",\"content\":%q}\n\n", "echo: "+q.Query)
	_, _ = io.WriteString(w, "data: {\"type\":\"done\"}\n\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
