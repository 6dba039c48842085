package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/kbconsole/pkg/stream"
)

// QueryStream opens a streamed chat answer for q. The caller owns the
// returned Reader and must Close it; there is no cancellation beyond ctx.
func (c *Client) QueryStream(ctx context.Context, q ChatQuery) (*stream.Reader, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, &ValidationError{Field: "query", Err: ErrEmptyQuery}
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, chatStreamPath, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("sending chat query",
		"session_id", q.SessionID,
		"history_turns", len(q.History),
	)

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	return stream.NewReader(resp.Body, stream.WithLogger(c.logger)), nil
}
