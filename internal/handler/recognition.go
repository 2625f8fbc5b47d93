package handler

import (
	"errors"
	"fmt"
	"net/http"

	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/model"
	"attendance/internal/repository"
	"attendance/internal/service/face"
)

// RecognitionController is the session surface used by handlers.
type RecognitionController interface {
	Available() bool
	StartDetection(roster []model.KnownFace) error
	StopDetection()
	DetectedFaces() []model.DetectedFace
}

// StartRecognitionHandler handles POST /api/recognition/start. It loads the
// active-roster snapshot from the store, starts the recognition session and
// ensures the camera feed is running.
func StartRecognitionHandler(session RecognitionController, cam CameraController,
	students repository.StudentRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !session.Available() {
			writeResult(w, false, "Face recognition is not available")
			return
		}

		active, err := students.GetActive()
		if err != nil {
			logger.Error("Failed to load roster: %v", err)
			writeResult(w, false, "Failed to load student roster")
			return
		}

		roster := make([]model.KnownFace, 0, len(active))
		for _, s := range active {
			if len(s.Encoding) == 0 {
				continue
			}
			roster = append(roster, model.KnownFace{
				ID:        s.ID,
				StudentID: s.StudentID,
				Name:      s.Name,
				Encoding:  s.Encoding,
			})
		}

		if err := session.StartDetection(roster); err != nil {
			switch {
			case errors.Is(err, face.ErrNoRoster):
				writeResult(w, false, "No students with face encodings found")
			case errors.Is(err, face.ErrNotAvailable):
				writeResult(w, false, "Face recognition is not available")
			default:
				logger.Error("Failed to start detection: %v", err)
				writeResult(w, false, "Failed to start face detection")
			}
			return
		}

		// Recognition pulls frames from the camera, so make sure it runs.
		if err := cam.Start(-1); err != nil {
			logger.Warning("Recognition started but camera failed: %v", err)
		}

		writeResult(w, true, fmt.Sprintf("Started with %d known faces", len(roster)))
	}
}

// StopRecognitionHandler handles POST /api/recognition/stop.
func StopRecognitionHandler(session RecognitionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session.StopDetection()
		writeResult(w, true, "Stopped")
	}
}

// DetectedFacesHandler handles GET /api/faces with the current snapshot.
func DetectedFacesHandler(session RecognitionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.NewFacesResponse(session.DetectedFaces()))
	}
}
