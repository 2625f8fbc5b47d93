// Package attendance converts detection snapshots into deduplicated,
// persisted attendance records.
package attendance

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/model"
	"attendance/internal/repository"
)

var (
	// ErrNotActive is returned when marking is attempted without an active
	// recognition session.
	ErrNotActive = errors.New("recognition is not active")
	// ErrNoFacesDetected is returned when the current snapshot is empty.
	// The condition is transient; callers may simply retry.
	ErrNoFacesDetected = errors.New("no faces detected")
	// ErrStudentNotFound is returned by manual marking for an unknown or
	// inactive student.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAlreadyMarked is returned by manual marking when the student
	// already has a record for today.
	ErrAlreadyMarked = errors.New("already marked present")
)

// DetectionSource provides the detection snapshot to mark from. The
// recognition session satisfies it.
type DetectionSource interface {
	Active() bool
	DetectedFaces() []model.DetectedFace
}

// Recorder marks students present from detection snapshots. A pass-level
// mutex serializes marking passes so two concurrent calls cannot both read
// the present-set before either commits; the unique (student_id, date) index
// in the store is the persistence backstop.
type Recorder struct {
	source        DetectionSource
	students      repository.StudentRepository
	records       repository.AttendanceRepository
	minConfidence float64
	log           *logger.Logger

	mu sync.Mutex // one marking pass at a time
}

// NewRecorder creates an attendance recorder. minConfidence is the exclusive
// lower bound on detection confidence for automatic marking.
func NewRecorder(source DetectionSource, students repository.StudentRepository,
	records repository.AttendanceRepository, minConfidence float64, log *logger.Logger) *Recorder {
	return &Recorder{
		source:        source,
		students:      students,
		records:       records,
		minConfidence: minConfidence,
		log:           log,
	}
}

// AutoMark takes one detection snapshot and marks every confidently
// recognized student who has no record for today. All new records are
// committed in a single transaction. A pass that finds no new students is a
// soft no-op: the result has Count zero and no error.
func (r *Recorder) AutoMark() (*dto.MarkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.source.Active() {
		return nil, ErrNotActive
	}

	faces := r.source.DetectedFaces()
	if len(faces) == 0 {
		return nil, ErrNoFacesDetected
	}

	now := time.Now()
	today := now.Format(model.DateLayout)

	// One bulk query for today's records instead of one lookup per face.
	present, err := r.records.StudentIDsByDate(today)
	if err != nil {
		return nil, fmt.Errorf("load today's records: %w", err)
	}

	result := &dto.MarkResult{}
	var newRecords []model.AttendanceRecord
	for _, f := range faces {
		if f.StudentID == 0 || f.Confidence <= r.minConfidence {
			continue
		}
		if _, ok := present[f.StudentID]; ok {
			continue
		}

		newRecords = append(newRecords, model.AttendanceRecord{
			StudentID:       f.StudentID,
			Date:            today,
			TimeIn:          now,
			Status:          model.StatusPresent,
			ConfidenceScore: f.Confidence,
		})
		// Guard against the same student appearing twice in one snapshot.
		present[f.StudentID] = struct{}{}
		result.Marked = append(result.Marked, dto.MarkedStudent{Name: f.Name})
		result.Count++
	}

	if result.Count == 0 {
		return result, nil
	}

	if err := r.records.InsertBatch(newRecords); err != nil {
		return nil, fmt.Errorf("commit attendance records: %w", err)
	}

	r.log.Info("Marked %d students present", result.Count)
	return result, nil
}

// MarkStudent marks a single student present by external student ID,
// re-checking for an existing same-day record before inserting.
func (r *Recorder) MarkStudent(studentID string) (*dto.MarkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, err := r.students.GetByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("look up student: %w", err)
	}
	if student == nil || !student.IsActive {
		return nil, ErrStudentNotFound
	}

	now := time.Now()
	today := now.Format(model.DateLayout)

	existing, err := r.records.GetByStudentAndDate(student.ID, today)
	if err != nil {
		return nil, fmt.Errorf("check existing record: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyMarked
	}

	if _, err := r.records.Insert(&model.AttendanceRecord{
		StudentID:       student.ID,
		Date:            today,
		TimeIn:          now,
		Status:          model.StatusPresent,
		ConfidenceScore: 1.0,
	}); err != nil {
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}

	r.log.Info("Marked %s present (manual)", student.Name)
	return &dto.MarkResult{
		Count:  1,
		Marked: []dto.MarkedStudent{{Name: student.Name}},
	}, nil
}
