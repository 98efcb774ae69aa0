package latex

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArgument is reported when a mandatory argument slot can not be filled
	ErrMissingArgument = errors.New("missing mandatory argument")

	// ErrUnterminated is reported when delimited or verbatim argument has no closing delimiter
	ErrUnterminated = errors.New("unterminated argument")

	// ErrSelfReference is reported when default value of an argument requires itself
	ErrSelfReference = errors.New("self-referential default value")

	// ErrTooDeep is returned when input nesting exceeds configured depth
	ErrTooDeep = errors.New("nesting is too deep")

	// ErrReplaceRoot is returned when visitor tries to replace the root with anything but a single node
	ErrReplaceRoot = errors.New("root can only be replaced by exactly one node")
)

// SignatureError describes malformed argument signature
type SignatureError struct {
	Signature string
	Offset    int
	Reason    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid signature %q at offset %d: %s", e.Signature, e.Offset, e.Reason)
}

// Warning is a non-fatal anomaly found while processing a document
type Warning struct {
	Err  error  // one of the Err* values or *SignatureError
	Name string // macro or environment name
	Span *Span  // location of the offending node if known
}

func (w *Warning) Error() string {
	if w.Span != nil {
		return fmt.Sprintf("%d:%d: %s: %v", w.Span.Start.Line, w.Span.Start.Column, w.Name, w.Err)
	}

	return fmt.Sprintf("%s: %v", w.Name, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}
