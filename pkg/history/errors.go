package history

import "fmt"

// ErrNotFound is returned when no stored session matches an id.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "session not found"
	}
	return "session not found: " + e.ID
}

// ErrAmbiguous is returned when an id prefix matches several sessions.
type ErrAmbiguous struct {
	Prefix  string
	Matches int
}

func (e ErrAmbiguous) Error() string {
	return fmt.Sprintf("session id %q is ambiguous: %d matches", e.Prefix, e.Matches)
}
