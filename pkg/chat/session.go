// Package chat holds the client-side state of a streamed chat conversation.
//
// A Session is rebuilt purely from the events decoded by pkg/stream: the
// assistant message being streamed accumulates content in arrival order and
// carries the latest known source list until a done or error event ends it.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/stream"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackText is shown in place of an answer that failed before any
// content arrived.
const FallbackText = "Sorry, I ran into a problem answering that. Please try again."

// Message is a single displayable chat message.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Sources     []stream.Source
	IsStreaming bool
	Error       string
	CreatedAt   time.Time
}

// Failed reports whether the message ended with an error.
func (m *Message) Failed() bool {
	return m.Error != ""
}

// Session is an ordered conversation. It is not safe for concurrent use.
type Session struct {
	ID       string
	Messages []*Message

	// RemoteID is the session id echoed by the server on done, sent back
	// with later queries.
	RemoteID string

	now func() time.Time
}

// NewSession returns an empty session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:  uuid.NewString(),
		now: time.Now,
	}
}

func newMessage(role Role, content string, at time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
}

// Begin appends the user query and a streaming assistant placeholder, and
// returns the placeholder.
func (s *Session) Begin(query string) *Message {
	at := s.now()
	s.Messages = append(s.Messages, newMessage(RoleUser, query, at))

	reply := newMessage(RoleAssistant, "", at)
	reply.IsStreaming = true
	s.Messages = append(s.Messages, reply)
	return reply
}

// Current returns the assistant message still streaming, or nil.
func (s *Session) Current() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	last := s.Messages[len(s.Messages)-1]
	if last.Role != RoleAssistant || !last.IsStreaming {
		return nil
	}
	return last
}

// Apply folds one event into the streaming message and reports whether the
// message is finished. Events arriving with no message streaming are
// ignored.
func (s *Session) Apply(ev stream.Event) bool {
	msg := s.Current()
	if msg == nil {
		return true
	}

	switch ev.Kind {
	case stream.KindSources, stream.KindSourcesUpdate:
		msg.Sources = slices.Clone(ev.Sources)
	case stream.KindContent:
		msg.Content += ev.Content
	case stream.KindDone:
		msg.IsStreaming = false
		if ev.SessionID != "" {
			s.RemoteID = ev.SessionID
		}
	case stream.KindError:
		msg.IsStreaming = false
		msg.Error = ev.Message
		if msg.Error == "" {
			msg.Error = "unknown error"
		}
		if msg.Content == "" {
			msg.Content = FallbackText
		}
	}
	return !msg.IsStreaming
}

// Finish ends the streaming message without an error, for streams that
// close before a done event.
func (s *Session) Finish() {
	if msg := s.Current(); msg != nil {
		msg.IsStreaming = false
	}
}

// Consume drains r into the streaming message, calling onUpdate (which may
// be nil) after every applied event. A transport failure or cancelled
// context is folded into the message as an error event and returned.
func (s *Session) Consume(ctx context.Context, r *stream.Reader, onUpdate func(*Message)) error {
	notify := func() {
		if onUpdate != nil {
			if msg := s.last(); msg != nil {
				onUpdate(msg)
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			s.Apply(stream.Event{Kind: stream.KindError, Message: err.Error()})
			notify()
			return err
		}

		ev, err := r.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.Apply(stream.Event{Kind: stream.KindError, Message: describe(err)})
			notify()
			return err
		}
		if ev == nil {
			s.Finish()
			notify()
			return nil
		}

		done := s.Apply(*ev)
		notify()
		if done {
			return nil
		}
	}
}

func describe(err error) string {
	var te *stream.TransportError
	if errors.As(err, &te) {
		return "connection lost: " + te.Err.Error()
	}
	return err.Error()
}

func (s *Session) last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// History returns up to n of the most recent finished, successful messages
// as query context. Failed answers and the user turns that produced them
// are left out.
func (s *Session) History(n int) []client.Turn {
	if n <= 0 {
		return nil
	}

	var turns []client.Turn
	for i := len(s.Messages) - 1; i >= 0 && len(turns) < n; i-- {
		msg := s.Messages[i]
		if msg.IsStreaming || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if msg.Failed() {
			// Skip the question that produced the failure too.
			if i > 0 && s.Messages[i-1].Role == RoleUser {
				i--
			}
			continue
		}
		turns = append(turns, client.Turn{Role: string(msg.Role), Content: msg.Content})
	}
	slices.Reverse(turns)
	return turns
}

// Query builds the request for the next user query, carrying up to
// historyTurns previous messages. Call it before Begin.
func (s *Session) Query(text string, historyTurns int) client.ChatQuery {
	return client.ChatQuery{
		Query:     text,
		SessionID: s.RemoteID,
		History:   s.History(historyTurns),
	}
}

// Restore rebuilds a finished session, e.g. from local history.
func Restore(id, remoteID string, messages []*Message) *Session {
	for _, m := range messages {
		m.IsStreaming = false
	}
	return &Session{
		ID:       id,
		RemoteID: remoteID,
		Messages: messages,
		now:      time.Now,
	}
}

// Title returns the first user message, shortened, as a label for the
// session.
func (s *Session) Title() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			title := strings.Join(strings.Fields(m.Content), " ")
			if r := []rune(title); len(r) > 60 {
				return string(r[:59]) + "…"
			}
			return title
		}
	}
	return ""
}
