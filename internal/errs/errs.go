// Package errs defines the error taxonomy used across the pipeline and
// its front-ends, grounded on the teacher's fmt.Errorf("...: %w", err)
// wrapping idiom throughout pkg/config and pkg/llm.
package errs

import "fmt"

// Kind classifies an error for front-end reporting.
type Kind string

const (
	// KindConfig marks a missing or malformed API key or other
	// startup-time misconfiguration. Fatal at startup.
	KindConfig Kind = "ConfigError"
	// KindLLM marks a non-2xx chat endpoint response or malformed JSON
	// in non-streaming mode. Aborts the pipeline; no history update.
	KindLLM Kind = "LLMError"
	// KindSearch marks three consecutive search HTTP failures. Same
	// treatment as KindLLM.
	KindSearch Kind = "SearchError"
	// KindExtractionEmpty marks Reason yielding no keyphrases after one
	// retry. Recoverable: Search proceeds with an empty query.
	KindExtractionEmpty Kind = "ExtractionEmpty"
	// KindTestMismatch marks an Assistant expectation that failed to
	// match in the file-based test runner.
	KindTestMismatch Kind = "TestMismatch"
)

// Error wraps an underlying cause with a Kind for dispatch by callers
// that need to distinguish fatal configuration problems from
// recoverable pipeline conditions.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
