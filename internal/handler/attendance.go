package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/model"
	"attendance/internal/repository"
	"attendance/internal/service/attendance"
)

// Marker is the attendance marking surface used by handlers.
type Marker interface {
	AutoMark() (*dto.MarkResult, error)
	MarkStudent(studentID string) (*dto.MarkResult, error)
}

// markResponse extends the standard envelope with marking details.
type markResponse struct {
	dto.Response
	MarkedCount    int                 `json:"marked_count"`
	MarkedStudents []dto.MarkedStudent `json:"marked_students,omitempty"`
}

// AutoMarkHandler handles POST /api/attendance/auto.
func AutoMarkHandler(marker Marker, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := marker.AutoMark()
		if err != nil {
			switch {
			case errors.Is(err, attendance.ErrNotActive):
				writeResult(w, false, "Recognition not active")
			case errors.Is(err, attendance.ErrNoFacesDetected):
				writeResult(w, false, "No faces detected")
			default:
				logger.Error("Auto mark failed: %v", err)
				writeResult(w, false, "Failed to mark attendance")
			}
			return
		}

		if result.Count == 0 {
			writeResult(w, false, "No new students to mark.")
			return
		}

		writeJSON(w, http.StatusOK, markResponse{
			Response:       dto.Response{Success: true, Message: fmt.Sprintf("Marked %d students.", result.Count)},
			MarkedCount:    result.Count,
			MarkedStudents: result.Marked,
		})
	}
}

// ManualMarkHandler handles POST /api/attendance/manual with a "student_id"
// form value holding the external student identifier.
func ManualMarkHandler(marker Marker, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := r.FormValue("student_id")
		if studentID == "" {
			writeResult(w, false, "student_id is required")
			return
		}

		result, err := marker.MarkStudent(studentID)
		if err != nil {
			switch {
			case errors.Is(err, attendance.ErrStudentNotFound):
				writeResult(w, false, "Student not found")
			case errors.Is(err, attendance.ErrAlreadyMarked):
				writeResult(w, false, "Already marked present")
			default:
				logger.Error("Manual mark failed: %v", err)
				writeResult(w, false, "Failed to mark attendance")
			}
			return
		}

		writeJSON(w, http.StatusOK, markResponse{
			Response:       dto.Response{Success: true, Message: fmt.Sprintf("Marked %s present", result.Marked[0].Name)},
			MarkedCount:    result.Count,
			MarkedStudents: result.Marked,
		})
	}
}

// attendanceResponse wraps a day's records.
type attendanceResponse struct {
	Success bool                 `json:"success"`
	Date    string               `json:"date"`
	Records []dto.AttendanceInfo `json:"records"`
}

// AttendanceByDateHandler handles GET /api/attendance?date=YYYY-MM-DD,
// defaulting to today.
func AttendanceByDateHandler(records repository.AttendanceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format(model.DateLayout)
		} else if _, err := time.Parse(model.DateLayout, date); err != nil {
			writeResult(w, false, "Invalid date, expected YYYY-MM-DD")
			return
		}

		recs, err := records.GetByDate(date)
		if err != nil {
			logger.Error("Failed to load attendance for %s: %v", date, err)
			writeResult(w, false, "Failed to load attendance records")
			return
		}

		infos := make([]dto.AttendanceInfo, 0, len(recs))
		for _, rec := range recs {
			infos = append(infos, dto.AttendanceInfo{
				ID:              rec.ID,
				StudentID:       rec.StudentID,
				Date:            rec.Date,
				TimeIn:          rec.TimeIn.Format(time.RFC3339),
				Status:          rec.Status,
				ConfidenceScore: rec.ConfidenceScore,
			})
		}

		writeJSON(w, http.StatusOK, attendanceResponse{Success: true, Date: date, Records: infos})
	}
}

// rangeResponse wraps the records of a date range.
type rangeResponse struct {
	Success bool                 `json:"success"`
	From    string               `json:"from"`
	To      string               `json:"to"`
	Records []dto.AttendanceInfo `json:"records"`
}

// AttendanceRangeHandler handles GET /api/attendance/range?from=&to= with
// both bounds required and inclusive.
func AttendanceRangeHandler(records repository.AttendanceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if _, err := time.Parse(model.DateLayout, from); err != nil {
			writeResult(w, false, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		if _, err := time.Parse(model.DateLayout, to); err != nil {
			writeResult(w, false, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		if from > to {
			writeResult(w, false, "from must not be after to")
			return
		}

		recs, err := records.GetRange(from, to)
		if err != nil {
			logger.Error("Failed to load attendance range %s..%s: %v", from, to, err)
			writeResult(w, false, "Failed to load attendance records")
			return
		}

		infos := make([]dto.AttendanceInfo, 0, len(recs))
		for _, rec := range recs {
			infos = append(infos, dto.AttendanceInfo{
				ID:              rec.ID,
				StudentID:       rec.StudentID,
				Date:            rec.Date,
				TimeIn:          rec.TimeIn.Format(time.RFC3339),
				Status:          rec.Status,
				ConfidenceScore: rec.ConfidenceScore,
			})
		}

		writeJSON(w, http.StatusOK, rangeResponse{Success: true, From: from, To: to, Records: infos})
	}
}
