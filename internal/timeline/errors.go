package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrTrackNotFound   = errors.New("track not found")
	ErrClipNotFound    = errors.New("clip not found")
	ErrInvalidScale    = errors.New("scale factor must be greater than zero")
	ErrSplitOutOfRange = errors.New("split point must fall strictly inside the clip")
)

// IsNotFound reports whether err came from an operation that targeted a
// track or clip the timeline does not contain. Such operations always return
// the timeline they were given, so lenient callers may ignore the error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTrackNotFound) || errors.Is(err, ErrClipNotFound)
}

func trackNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
}

func clipNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrClipNotFound, id)
}

// ParseError is returned by FromJSON when the input is not a timeline
// document. Err holds the underlying decoder diagnostic.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "invalid timeline document: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
