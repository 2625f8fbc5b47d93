package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"attendance/internal/model"
)

// AttendanceRepository implements repository.AttendanceRepository for SQLite.
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert adds a single attendance record.
func (r *AttendanceRepository) Insert(rec *model.AttendanceRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO attendance_records (student_id, date, time_in, status, confidence_score)
		VALUES (?, ?, ?, ?, ?)
	`, rec.StudentID, rec.Date, rec.TimeIn, rec.Status, rec.ConfidenceScore)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attendance record: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds multiple attendance records in a single transaction.
// Either all records are committed or none are.
func (r *AttendanceRepository) InsertBatch(recs []model.AttendanceRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO attendance_records (student_id, date, time_in, status, confidence_score)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.Exec(rec.StudentID, rec.Date, rec.TimeIn, rec.Status, rec.ConfidenceScore); err != nil {
			return fmt.Errorf("failed to insert attendance record: %w", err)
		}
	}

	return tx.Commit()
}

// GetByDate retrieves all attendance records for one day.
func (r *AttendanceRepository) GetByDate(date string) ([]model.AttendanceRecord, error) {
	return r.query(`
		SELECT id, student_id, date, time_in, status, confidence_score, created_at
		FROM attendance_records WHERE date = ? ORDER BY time_in
	`, date)
}

// GetByStudentAndDate retrieves one student's record for one day.
// Returns nil when the student has no record for that day.
func (r *AttendanceRepository) GetByStudentAndDate(studentID int64, date string) (*model.AttendanceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var rec model.AttendanceRecord
	err := r.db.Conn().QueryRow(`
		SELECT id, student_id, date, time_in, status, confidence_score, created_at
		FROM attendance_records WHERE student_id = ? AND date = ?
	`, studentID, date).Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.TimeIn, &rec.Status, &rec.ConfidenceScore, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}

	return &rec, nil
}

// StudentIDsByDate returns the set of student IDs already recorded for one
// day. One bulk query instead of one lookup per detected face.
func (r *AttendanceRepository) StudentIDsByDate(date string) (map[int64]struct{}, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT student_id FROM attendance_records WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query present students: %w", err)
	}
	defer rows.Close()

	present := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		present[id] = struct{}{}
	}

	return present, rows.Err()
}

// GetRange retrieves records with date in [from, to], inclusive.
func (r *AttendanceRepository) GetRange(from, to string) ([]model.AttendanceRecord, error) {
	return r.query(`
		SELECT id, student_id, date, time_in, status, confidence_score, created_at
		FROM attendance_records WHERE date >= ? AND date <= ? ORDER BY date, time_in
	`, from, to)
}

func (r *AttendanceRepository) query(query string, args ...any) ([]model.AttendanceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.TimeIn, &rec.Status, &rec.ConfidenceScore, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
