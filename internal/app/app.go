// Package app wires configuration, storage, camera capture, face
// recognition and the HTTP surface into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"attendance/internal/config"
	"attendance/internal/logger"
	"attendance/internal/repository/sqlite"
	"attendance/internal/route"
	"attendance/internal/service/attendance"
	"attendance/internal/service/camera"
	"attendance/internal/service/face"
	"attendance/internal/service/stream"
	ws "attendance/internal/service/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	camera   *camera.Service
	session  *face.Session
	recorder *attendance.Recorder
	hub      *ws.Hub
	server   *http.Server
}

// sessionSource adapts the recognition session to the stream multiplexer.
type sessionSource struct {
	session *face.Session
}

func (s sessionSource) Frame() ([]byte, bool) { return s.session.Frame() }
func (s sessionSource) Running() bool         { return s.session.Active() }

// cameraSource adapts the raw camera feed, stamped with the capture time.
type cameraSource struct {
	cam *camera.Service
}

func (s cameraSource) Frame() ([]byte, bool) {
	jpeg, _, ok := s.cam.FrameWithOverlay()
	return jpeg, ok
}

func (s cameraSource) Running() bool { return s.cam.Running() }

func New() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	studentRepo := sqlite.NewStudentRepository(db)
	attendanceRepo := sqlite.NewAttendanceRepository(db)

	cam := camera.New(
		camera.GocvOpener(cfg.CameraWidth, cfg.CameraHeight, cfg.CameraFPS),
		camera.StampTimestamp,
		log,
		camera.Options{
			Index:           cfg.CameraIndex,
			CaptureInterval: time.Duration(cfg.CaptureIntervalMs) * time.Millisecond,
		},
	)

	// Recognition degrades to unavailable when the models cannot be loaded;
	// the rest of the system keeps working.
	var capability face.Capability
	if c, err := face.NewGocvCapability(cfg, log); err != nil {
		log.Warning("Face recognition unavailable: %v", err)
	} else {
		capability = c
	}

	hub := ws.NewHub(log)
	session := face.NewSession(capability, cam, hub, log, face.Options{
		Tolerance: cfg.Tolerance,
		Interval:  time.Duration(cfg.RecognitionIntervalMs) * time.Millisecond,
	})
	recorder := attendance.NewRecorder(session, studentRepo, attendanceRepo, cfg.MinMarkConfidence, log)
	mux := stream.NewMultiplexer(sessionSource{session}, cameraSource{cam}, log, stream.Options{})

	router := route.SetupRoutes(route.Deps{
		Config:   cfg,
		Logger:   log,
		Camera:   cam,
		Session:  session,
		Recorder: recorder,
		Stream:   mux,
		Hub:      hub,
		Students: studentRepo,
		Records:  attendanceRepo,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		camera:   cam,
		session:  session,
		recorder: recorder,
		hub:      hub,
		server:   server,
	}, nil
}

// Run serves until ctx is cancelled, then stops recognition, releases the
// camera and drains the HTTP server.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Attendance server listening on %s", a.server.Addr)
	fmt.Printf("Attendance server\n")
	fmt.Printf("URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("Database: %s\n", a.config.DatabasePath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.session.StopDetection()
		if err := a.camera.Stop(); err != nil {
			a.logger.Warning("Camera stop on shutdown: %v", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if closeErr := a.db.Close(); closeErr != nil {
		a.logger.Error("Closing database: %v", closeErr)
	}
	return err
}
