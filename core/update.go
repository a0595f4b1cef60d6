package core

import "time"

// Update is the partial update an agent returns. A nil field means "leave
// untouched"; a non-nil empty slice or map replaces the current value with an
// empty one.
//
// The metadata block (Status through LastModifiedAt) belongs to the kernel.
// Values an agent places there are discarded and replaced by the kernel's
// own bookkeeping.
type Update struct {
	// Research phase
	ResearchData      []string
	ResearchSources   []Source
	ResearchQuality   *ResearchQuality
	ResearchTimestamp *time.Time

	// Writing phase
	Draft           *string
	DraftTitle      *string
	DraftMetadata   map[string]any
	DraftIterations *int

	// Editing phase
	EditorFeedback *string
	QualityScore   *float64
	NeedsRevision  *bool

	// Execution metadata
	Status        map[string]Status
	ExecutionTime map[string]float64
	Errors        []ErrorRecord

	// Versioning
	Version        *int
	LastModifiedBy *string
	LastModifiedAt *time.Time
}

// DomainOnly returns a copy of u with the kernel-owned metadata cleared.
func (u Update) DomainOnly() Update {
	u.Status = nil
	u.ExecutionTime = nil
	u.Errors = nil
	u.Version = nil
	u.LastModifiedBy = nil
	u.LastModifiedAt = nil
	return u
}

// HasDomainChanges reports whether u touches any research, draft or review field.
func (u Update) HasDomainChanges() bool {
	return u.ResearchData != nil || u.ResearchSources != nil || u.ResearchQuality != nil ||
		u.ResearchTimestamp != nil || u.Draft != nil || u.DraftTitle != nil ||
		u.DraftMetadata != nil || u.DraftIterations != nil || u.EditorFeedback != nil ||
		u.QualityScore != nil || u.NeedsRevision != nil
}

// Ptr returns a pointer to v. Handy when building an Update literal.
func Ptr[T any](v T) *T { return &v }
