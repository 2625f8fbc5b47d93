package handler

import (
	"net/http"

	"attendance/internal/logger"
	"attendance/internal/service/stream"
)

// VideoFeedHandler handles GET /api/stream with a continuous multipart JPEG
// stream. The handler returns when the viewer disconnects or both frame
// sources stop running.
func VideoFeedHandler(mux *stream.Multiplexer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "close")

		if err := mux.Stream(r.Context(), w); err != nil {
			// Usually just the viewer going away mid-write.
			logger.Info("Video stream ended: %v", err)
		}
	}
}
