package artifact

import "errors"

var (
	// ErrNotFound is returned when an artifact for the given run / id pair
	// does not exist in the underlying store.
	ErrNotFound = errors.New("artifact not found")
	// ErrNoDraft is returned when rendering a state without a draft.
	ErrNoDraft = errors.New("state has no draft")
	// ErrNoFrontMatter is returned when parsing a document without a header.
	ErrNoFrontMatter = errors.New("document has no front matter")
)
