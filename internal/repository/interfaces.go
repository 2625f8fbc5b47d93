package repository

import (
	"attendance/internal/model"
)

// StudentRepository defines the interface for student roster operations.
type StudentRepository interface {
	// Create operations
	Insert(s *model.Student) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Student, error)
	GetByStudentID(studentID string) (*model.Student, error)
	GetActive() ([]model.Student, error)

	// Update operations
	Deactivate(id int64) error
}

// AttendanceRepository defines the interface for attendance record operations.
// Records are insert-only; InsertBatch commits all records in one transaction
// and rolls back on any error.
type AttendanceRepository interface {
	// Create operations
	Insert(rec *model.AttendanceRecord) (int64, error)
	InsertBatch(recs []model.AttendanceRecord) error

	// Read operations
	GetByDate(date string) ([]model.AttendanceRecord, error)
	GetByStudentAndDate(studentID int64, date string) (*model.AttendanceRecord, error)
	StudentIDsByDate(date string) (map[int64]struct{}, error)
	GetRange(from, to string) ([]model.AttendanceRecord, error)
}
