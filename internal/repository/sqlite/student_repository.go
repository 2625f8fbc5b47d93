package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"attendance/internal/model"
)

// StudentRepository implements repository.StudentRepository for SQLite.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a new SQLite student repository.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Insert adds a new student record to the database.
func (r *StudentRepository) Insert(s *model.Student) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	encoding, err := marshalEncoding(s.Encoding)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Conn().Exec(`
		INSERT INTO students (student_id, name, email, phone, department, year, section, image_path, encoding, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.StudentID, s.Name, s.Email, s.Phone, s.Department, s.Year, s.Section, s.ImagePath, encoding, s.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to insert student: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a student by primary key. Returns nil when not found.
func (r *StudentRepository) GetByID(id int64) (*model.Student, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, student_id, name, email, phone, department, year, section, image_path, encoding, is_active, created_at
		FROM students WHERE id = ?
	`, id)

	return scanStudent(row)
}

// GetByStudentID retrieves a student by external identifier. Returns nil when
// not found.
func (r *StudentRepository) GetByStudentID(studentID string) (*model.Student, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, student_id, name, email, phone, department, year, section, image_path, encoding, is_active, created_at
		FROM students WHERE student_id = ?
	`, studentID)

	return scanStudent(row)
}

// GetActive retrieves all active students, encodings included. This is the
// roster snapshot source for the recognition session.
func (r *StudentRepository) GetActive() ([]model.Student, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, student_id, name, email, phone, department, year, section, image_path, encoding, is_active, created_at
		FROM students WHERE is_active = 1 ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudentRows(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}

	return students, rows.Err()
}

// Deactivate soft-deletes a student. Attendance history is kept.
func (r *StudentRepository) Deactivate(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE students SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to deactivate student: %w", err)
	}
	return nil
}

func marshalEncoding(encoding []float32) ([]byte, error) {
	if len(encoding) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encoding: %w", err)
	}
	return data, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStudent(row *sql.Row) (*model.Student, error) {
	s, err := scanStudentRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanStudentRows(row scannable) (*model.Student, error) {
	var s model.Student
	var encoding []byte
	if err := row.Scan(&s.ID, &s.StudentID, &s.Name, &s.Email, &s.Phone, &s.Department,
		&s.Year, &s.Section, &s.ImagePath, &encoding, &s.IsActive, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	if len(encoding) > 0 {
		if err := json.Unmarshal(encoding, &s.Encoding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal encoding: %w", err)
		}
	}
	return &s, nil
}
