package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"attendance/internal/config"
	"attendance/internal/handler"
	"attendance/internal/logger"
	"attendance/internal/middleware"
	"attendance/internal/repository"
	"attendance/internal/service/attendance"
	"attendance/internal/service/camera"
	"attendance/internal/service/face"
	"attendance/internal/service/stream"
	ws "attendance/internal/service/websocket"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Camera   *camera.Service
	Session  *face.Session
	Recorder *attendance.Recorder
	Stream   *stream.Multiplexer
	Hub      *ws.Hub
	Students repository.StudentRepository
	Records  repository.AttendanceRepository
}

// SetupRoutes registers the API, auth and log endpoints and wraps the router
// with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/camera/start", handler.StartCameraHandler(d.Camera, d.Logger))
		r.Post("/camera/stop", handler.StopCameraHandler(d.Camera, d.Logger))

		r.Post("/recognition/start", handler.StartRecognitionHandler(d.Session, d.Camera, d.Students, d.Logger))
		r.Post("/recognition/stop", handler.StopRecognitionHandler(d.Session))
		r.Get("/faces", handler.DetectedFacesHandler(d.Session))

		r.Get("/stream", handler.VideoFeedHandler(d.Stream, d.Logger))
		r.Get("/live", handler.LiveFacesHandler(d.Hub, d.Logger))

		r.Post("/attendance/auto", handler.AutoMarkHandler(d.Recorder, d.Logger))
		r.Post("/attendance/manual", handler.ManualMarkHandler(d.Recorder, d.Logger))
		r.Get("/attendance", handler.AttendanceByDateHandler(d.Records, d.Logger))
		r.Get("/attendance/range", handler.AttendanceRangeHandler(d.Records, d.Logger))

		r.Get("/students", handler.StudentsHandler(d.Students, d.Logger))
		r.Get("/health", handler.HealthCheck)
	})

	r.Post("/auth/login", handler.LoginHandler(d.Config, d.Logger))
	r.Post("/auth/logout", handler.LogoutHandler)

	r.Get("/logs/{level}", handler.ShowLogsHandler(d.Config))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(d.Logger))

	return r
}
