package chat

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an answer could not be produced. The engine
// never panics and never returns raw provider errors: every failure is
// wrapped in an *Error so the boundary layer can render it.
type ErrorKind int

const (
	// KindIndexUnavailable: no index is loaded; retrieval was not attempted.
	KindIndexUnavailable ErrorKind = iota
	// KindNoResults: retrieval ran but nothing passed the relevance
	// threshold. A normal outcome, not a failure.
	KindNoResults
	// KindRetrieval: embedding or similarity search failed.
	KindRetrieval
	// KindGeneration: the language-model call failed.
	KindGeneration
)

func (k ErrorKind) String() string {
	switch k {
	case KindIndexUnavailable:
		return "index_unavailable"
	case KindNoResults:
		return "no_results"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	}
	return "unknown"
}

// Error is the structured failure type returned by Engine.Answer.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the engine error kind, if err carries one.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// Fixed user-visible texts rendered at the boundary layer.
const (
	msgIndexNotLoaded = "The document index is not loaded."
	msgNoRelevantDocs = "No relevant documents found."
)

// UserMessage renders an Answer failure into the text shown to the user.
// Only the boundary layers (HTTP handler, TUI) call this; the engine
// itself deals in structured errors.
func UserMessage(err error) string {
	if kind, ok := KindOf(err); ok {
		switch kind {
		case KindIndexUnavailable:
			return msgIndexNotLoaded
		case KindNoResults:
			return msgNoRelevantDocs
		}
	}
	return "Sorry, an error occurred: " + rootCause(err).Error()
}

func rootCause(err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Err != nil {
		return ce.Err
	}
	return err
}
