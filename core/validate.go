package core

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Topic length bounds, counted in characters.
const (
	MinTopicLength = 3
	MaxTopicLength = 200
)

// ErrInvalidState is matched (errors.Is) by every *ValidationError.
var ErrInvalidState = errors.New("invalid state")

// ValidationError describes why a State failed its precondition check.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// Is makes errors.Is(err, ErrInvalidState) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidState }

// Validate checks the preconditions a run must meet before any agent executes:
// the topic is present and between MinTopicLength and MaxTopicLength
// characters long. It returns nil or a *ValidationError.
func Validate(s *State) error {
	if s == nil || s.Topic == "" {
		return &ValidationError{Field: "topic", Reason: "Missing required field: topic"}
	}

	n := utf8.RuneCountInString(s.Topic)
	if n < MinTopicLength {
		return &ValidationError{Field: "topic", Reason: fmt.Sprintf("Topic must be at least %d characters long", MinTopicLength)}
	}
	if n > MaxTopicLength {
		return &ValidationError{Field: "topic", Reason: fmt.Sprintf("Topic must be at most %d characters long", MaxTopicLength)}
	}

	return nil
}
