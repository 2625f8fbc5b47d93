package handler

import (
	"net/http"

	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/repository"
)

// studentsResponse wraps the active roster summary.
type studentsResponse struct {
	Success  bool              `json:"success"`
	Students []dto.StudentInfo `json:"students"`
}

// StudentsHandler handles GET /api/students with the active roster.
// Encodings stay server-side.
func StudentsHandler(students repository.StudentRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := students.GetActive()
		if err != nil {
			logger.Error("Failed to load students: %v", err)
			writeResult(w, false, "Failed to load students")
			return
		}

		infos := make([]dto.StudentInfo, 0, len(active))
		for _, s := range active {
			infos = append(infos, dto.StudentInfo{
				ID:          s.ID,
				StudentID:   s.StudentID,
				Name:        s.Name,
				Department:  s.Department,
				Year:        s.Year,
				Section:     s.Section,
				HasEncoding: len(s.Encoding) > 0,
			})
		}

		writeJSON(w, http.StatusOK, studentsResponse{Success: true, Students: infos})
	}
}
