package handler

import (
	"net/http"
	"strconv"

	"attendance/internal/logger"
)

// CameraController is the camera lifecycle surface used by handlers.
// A negative index selects the configured default device.
type CameraController interface {
	Start(index int) error
	Stop() error
}

// StartCameraHandler handles POST /api/camera/start. An optional "index"
// query parameter selects the device; otherwise the configured default is
// used.
func StartCameraHandler(cam CameraController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index := -1
		if v := r.URL.Query().Get("index"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				writeResult(w, false, "Invalid camera index")
				return
			}
			index = parsed
		}

		if err := cam.Start(index); err != nil {
			logger.Error("Failed to start camera: %v", err)
			writeResult(w, false, "Failed to start camera")
			return
		}

		writeResult(w, true, "Camera started")
	}
}

// StopCameraHandler handles POST /api/camera/stop.
func StopCameraHandler(cam CameraController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cam.Stop(); err != nil {
			logger.Error("Failed to stop camera: %v", err)
			writeResult(w, false, "Failed to stop camera")
			return
		}

		writeResult(w, true, "Camera stopped")
	}
}
