package model

import "time"

// KnownFace is one roster entry used for matching. The roster is loaded from
// the active students once per recognition session and is immutable until the
// session restarts.
type KnownFace struct {
	ID        int64 // students.id
	StudentID string
	Name      string
	Encoding  []float32
}

// DetectedFace is one recognition result for a face region in the current
// cycle. StudentID is zero for faces that did not match any roster entry.
// The detection list is fully replaced each cycle, never accumulated.
type DetectedFace struct {
	StudentID  int64
	Name       string
	Confidence float64
	X          int
	Y          int
	Width      int
	Height     int
	Timestamp  time.Time
}
