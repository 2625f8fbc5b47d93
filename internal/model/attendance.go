package model

import "time"

// DateLayout is the canonical format for attendance dates.
const DateLayout = "2006-01-02"

// StatusPresent is the status written by the attendance recorder.
// Status corrections (late, excused, ...) are an external concern.
const StatusPresent = "Present"

// AttendanceRecord is one student's attendance for one day. Records are
// created once and never mutated; at most one exists per (student, date),
// enforced both in the recorder and by a unique index in the store.
type AttendanceRecord struct {
	ID              int64
	StudentID       int64 // students.id
	Date            string
	TimeIn          time.Time
	Status          string
	ConfidenceScore float64
	CreatedAt       time.Time
}
