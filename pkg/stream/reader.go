package stream

import (
	"errors"
	"io"
)

// defaultChunkSize is the read size used against the response body. Bodies
// from the chat endpoint deliver small, frequent chunks; a small buffer keeps
// tokens flowing to the caller as soon as they arrive.
const defaultChunkSize = 4 * 1024

// Reader pulls Events from a live response body.
//
// ┌──────────────────┐
// │ source io.Reader │  raw chunks, arbitrary boundaries
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ Decoder.Feed()   │  line buffer, "data: " records
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ Reader.Next()    │  one Event at a time
// └──────────────────┘
type Reader struct {
	src     io.Reader
	dec     *Decoder
	chunk   []byte
	pending []Event
	err     error
	done    bool
}

// NewReader returns a Reader decoding events from src with a fresh Decoder.
func NewReader(src io.Reader, opts ...Option) *Reader {
	return &Reader{
		src:   src,
		dec:   NewDecoder(opts...),
		chunk: make([]byte, defaultChunkSize),
	}
}

// Next returns the next event. It blocks until a complete line is available.
// Next returns nil, nil once the source is exhausted. A read failure is
// returned as a *TransportError and ends the sequence; later calls return the
// same error.
func (r *Reader) Next() (*Event, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		if r.done {
			return nil, nil
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			r.pending = append(r.pending, r.dec.Feed(r.chunk[:n])...)
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			r.dec.Flush()
			r.done = true
		default:
			r.dec.Flush()
			r.err = &TransportError{Err: err}
		}
	}

	ev := r.pending[0]
	r.pending = r.pending[1:]
	return &ev, nil
}

// Skipped returns the number of malformed lines dropped so far.
func (r *Reader) Skipped() int {
	return r.dec.Skipped()
}

// Close closes the underlying source when it is an io.Closer.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
