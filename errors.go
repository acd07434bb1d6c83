package chatschema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShapeMismatch is the single failure kind reported by every schema.
	// All *ShapeMismatchError values unwrap to it.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNoChoices is returned when a provider completion carries no choices.
	ErrNoChoices = errors.New("completion has no choices")
)

// IssueCode classifies a single mismatch.
type IssueCode string

const (
	IssueRequired       IssueCode = "required"
	IssueInvalidType    IssueCode = "invalid_type"
	IssueInvalidLiteral IssueCode = "invalid_literal"
	IssueInvalidValue   IssueCode = "invalid_value"
	IssueInvalidUnion   IssueCode = "invalid_union"
	IssueOutOfRange     IssueCode = "out_of_range"
)

// Issue describes one field that did not match its expected shape.
type Issue struct {
	// Path locates the field, e.g. "messages[1].tool_calls[0].id".
	// The empty string denotes the root value.
	Path     string    `json:"path"`
	Code     IssueCode `json:"code"`
	Expected string    `json:"expected"`
	Received string    `json:"received"`
	Message  string    `json:"message"`
}

func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: %s (%s)", path, i.Message, i.Code)
}

// ShapeMismatchError aggregates every issue found while parsing a value.
type ShapeMismatchError struct {
	Schema string
	Issues []Issue
}

func (e *ShapeMismatchError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: %s", e.Schema, ErrShapeMismatch)
	}

	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s: %s", e.Schema, ErrShapeMismatch, strings.Join(parts, "; "))
}

// Unwrap lets callers test with errors.Is(err, ErrShapeMismatch).
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// First returns the first recorded issue, if any.
func (e *ShapeMismatchError) First() (Issue, bool) {
	if len(e.Issues) == 0 {
		return Issue{}, false
	}
	return e.Issues[0], true
}

// HasPath reports whether any issue was recorded at path.
func (e *ShapeMismatchError) HasPath(path string) bool {
	for _, issue := range e.Issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}
