package dto

// MarkedStudent identifies one student marked present during a marking pass.
type MarkedStudent struct {
	Name string `json:"name"`
}

// MarkResult is the outcome of one attendance marking pass.
// Count zero means no new students needed marking (a soft no-op).
type MarkResult struct {
	Count  int             `json:"marked_count"`
	Marked []MarkedStudent `json:"marked_students,omitempty"`
}
