package docdata

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingElement indicates a required child element is absent
	ErrMissingElement = errors.New("missing element")

	// ErrMissingText indicates an element that must carry text has none
	ErrMissingText = errors.New("missing text content")

	// ErrMissingAttribute indicates a required attribute is absent
	ErrMissingAttribute = errors.New("missing attribute")
)

// ContentError reports a document that is well-formed XML but lacks
// something the class-reference layout requires.
type ContentError struct {
	Path string // element path, e.g. class[Node]/methods/method[add_child]/description
	Line int    // line of the nearest enclosing element, 0 if unknown
	Err  error
}

func (e *ContentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

func contentError(path string, line int, err error, detail string) *ContentError {
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return &ContentError{Path: path, Line: line, Err: err}
}
