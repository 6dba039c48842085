// Package stream decodes the chat query stream returned by the knowledge-base
// API into ordered, typed events.
//
// The API answers POST /api/chat/query/stream with a line-delimited body in
// which each meaningful line is prefixed with "data: " and carries a JSON
// record with a "type" discriminator:
//
//	data: {"type":"sources","sources":[...]}
//	data: {"type":"content","content":"Hello"}
//	data: {"type":"done"}
//
// Chunks delivered by the transport carry no alignment guarantee, so the
// Decoder holds back any trailing partial line until its line break arrives.
package stream

import (
	"fmt"
	"strings"
)

// Kind is the discriminator of a decoded Event.
type Kind string

const (
	KindSources       Kind = "sources"
	KindSourcesUpdate Kind = "sources_update"
	KindContent       Kind = "content"
	KindDone          Kind = "done"
	KindError         Kind = "error"
)

// Valid reports whether k is one of the recognized event kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSources, KindSourcesUpdate, KindContent, KindDone, KindError:
		return true
	}
	return false
}

// Event is a single logical unit decoded from the stream.
type Event struct {
	Kind Kind

	// Sources is set for KindSources and KindSourcesUpdate.
	Sources []Source

	// Content is the text fragment for KindContent.
	Content string

	// Message is the error text for KindError.
	Message string

	// SessionID is echoed by the server on KindDone, when present.
	SessionID string
}

// Terminal reports whether no further events are expected after e.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

// Source is a citation record referencing a document or video segment held
// by the backend. The client never mutates it.
type Source struct {
	Title          string      `json:"title"`
	Filename       string      `json:"filename"`
	DisplayName    string      `json:"display_name,omitempty"`
	RelevanceScore float64     `json:"relevance_score"`
	Type           string      `json:"type,omitempty"`
	Summary        string      `json:"summary,omitempty"`
	Concepts       []string    `json:"concepts,omitempty"`
	Timestamps     []Timestamp `json:"timestamps,omitempty"`
	Page           int         `json:"page,omitempty"`
}

// Timestamp is a video segment, in seconds from the start of the video.
type Timestamp struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text,omitempty"`
}

// Name returns the best human label for the source.
func (s Source) Name() string {
	switch {
	case s.DisplayName != "":
		return s.DisplayName
	case s.Title != "":
		return s.Title
	}
	return s.Filename
}

// IsVideo reports whether the source references a video segment.
func (s Source) IsVideo() bool {
	return strings.EqualFold(s.Type, "video") || len(s.Timestamps) > 0
}

// String renders a segment as "m:ss-m:ss".
func (t Timestamp) String() string {
	return fmt.Sprintf("%s-%s", clock(t.Start), clock(t.End))
}

func clock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
