package stream

import "fmt"

// UnknownKindError is returned for records whose "type" is not a known Kind.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown stream event type %q", e.Kind)
}

// TransportError reports a failure reading the response body. It ends the
// stream: a Reader never yields events after returning one.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reading stream: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
