// Package perr defines the error taxonomy shared by the document parsers.
//
// Every parser failure is fatal: it is raised where it is detected and
// returned unchanged up to the caller of Parse. Callers tell structural
// problems (unbalanced BEGIN/END, malformed content lines) apart from
// validation problems (missing required fields, bad enumerated or numeric
// values) with errors.Is against ErrStructural / ErrValidation.
package perr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a parse failure.
type Kind int

const (
	KindStructural Kind = iota + 1
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

var (
	// ErrStructural matches every structural *Error via errors.Is.
	ErrStructural = errors.New("structural error")
	// ErrValidation matches every validation *Error via errors.Is.
	ErrValidation = errors.New("validation error")
)

// Error is a parse failure with a short message and structured context.
type Error struct {
	Kind Kind
	Msg  string
	Args map[string]any
	Err  error
}

func newError(kind Kind, msg string, args map[string]any) *Error {
	if args == nil {
		args = make(map[string]any)
	}
	return &Error{Kind: kind, Msg: msg, Args: args}
}

// Structural returns a structural error.
func Structural(msg string, args map[string]any) *Error {
	return newError(KindStructural, msg, args)
}

// Validation returns a validation error.
func Validation(msg string, args map[string]any) *Error {
	return newError(KindValidation, msg, args)
}

// Missing reports a required property absent from a component.
func Missing(field, component string) *Error {
	return Validation(field+" required", map[string]any{
		"field":     field,
		"component": component,
	})
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Field returns the "field" argument, if any.
func (e *Error) Field() string {
	s, _ := e.Args["field"].(string)
	return s
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)

	keys := make([]string, 0, len(e.Args))
	for k := range e.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, e.Args[k]))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrStructural:
		return e.Kind == KindStructural
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

// KindOf returns the Kind of err, or 0 if err is not a parse error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
