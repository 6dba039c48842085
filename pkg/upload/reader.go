package upload

import "io"

// ProgressReader reports the number of bytes read through it. Wrapping an
// upload body with it gives byte-level progress as the transport consumes
// the body.
type ProgressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    func(sent, total int64)
}

// NewProgressReader wraps r; fn is called after every read that returned data.
func NewProgressReader(r io.Reader, total int64, fn func(sent, total int64)) *ProgressReader {
	return &ProgressReader{r: r, total: total, fn: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// Sent returns the bytes read so far.
func (p *ProgressReader) Sent() int64 {
	return p.sent
}
