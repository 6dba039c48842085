package stream

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/papercomputeco/kbconsole/pkg/logger"
)

// DataPrefix marks a line that carries an event record.
const DataPrefix = "data: "

// Option configures a Decoder or Reader.
type Option func(*Decoder)

// WithLogger sets the logger used to report dropped lines.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder incrementally turns raw chunks into Events.
//
// A Decoder is bound to one response stream. It is not safe for concurrent
// use and is not resumable after the stream fails: build a fresh one per
// request.
type Decoder struct {
	// buf holds the tail of the previous chunk that has not seen its line
	// break yet.
	buf     strings.Builder
	skipped int
	logger  *slog.Logger
}

// NewDecoder returns a Decoder with an empty line buffer.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{logger: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// record is the wire shape of a "data: " payload.
type record struct {
	Type      Kind     `json:"type"`
	Sources   []Source `json:"sources"`
	Content   string   `json:"content"`
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	SessionID string   `json:"session_id"`
}

// Feed appends chunk to the line buffer and returns the events for every line
// completed by it, in arrival order. The final segment after the last line
// break is held back until a later chunk terminates it.
func (d *Decoder) Feed(chunk []byte) []Event {
	if len(chunk) == 0 {
		return nil
	}

	d.buf.Write(chunk)
	pending := d.buf.String()

	last := strings.LastIndexByte(pending, '\n')
	if last < 0 {
		return nil
	}

	complete, rest := pending[:last], pending[last+1:]
	d.buf.Reset()
	d.buf.WriteString(rest)

	var events []Event
	for line := range strings.SplitSeq(complete, "\n") {
		ev, ok := d.parse(line)
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush ends the stream. Any carry-over that never saw a line break is
// discarded; the number of discarded bytes is returned.
func (d *Decoder) Flush() int {
	n := d.buf.Len()
	if n > 0 {
		d.logger.Debug("discarding unterminated stream tail", "bytes", n)
	}
	d.buf.Reset()
	return n
}

// Pending returns the number of buffered bytes awaiting a line break.
func (d *Decoder) Pending() int {
	return d.buf.Len()
}

// Skipped returns the number of complete lines that carried the data prefix
// but could not be decoded into a known event.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func (d *Decoder) parse(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, DataPrefix) {
		return Event{}, false
	}

	ev, err := decodeRecord(line[len(DataPrefix):])
	if err != nil {
		d.skipped++
		d.logger.Debug("skipping malformed stream line", "error", err, "line", line)
		return Event{}, false
	}
	return ev, true
}

// ParseLine classifies a single complete line. It returns false for lines
// without the data prefix and for records that fail to decode.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, DataPrefix) {
		return Event{}, false
	}
	ev, err := decodeRecord(line[len(DataPrefix):])
	return ev, err == nil
}

func decodeRecord(payload string) (Event, error) {
	var rec record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Event{}, err
	}

	if !rec.Type.Valid() {
		return Event{}, &UnknownKindError{Kind: string(rec.Type)}
	}

	ev := Event{Kind: rec.Type}
	switch rec.Type {
	case KindSources, KindSourcesUpdate:
		ev.Sources = rec.Sources
	case KindContent:
		ev.Content = rec.Content
	case KindDone:
		ev.SessionID = rec.SessionID
	case KindError:
		ev.Message = rec.Error
		if ev.Message == "" {
			ev.Message = rec.Message
		}
	}
	return ev, nil
}
