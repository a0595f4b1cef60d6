package blog

import "errors"

var (
	// ErrMissingField is returned when an agent's required input is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrNoResearch is returned when every search query came back empty.
	ErrNoResearch = errors.New("no research results found")
	// ErrDraftTooShort is returned when a draft falls below the minimum word count.
	ErrDraftTooShort = errors.New("draft is too short")
	// ErrInvalidVerdict is returned when the editor's answer cannot be parsed.
	ErrInvalidVerdict = errors.New("invalid editor verdict")
)
