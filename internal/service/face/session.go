package face

import (
	"errors"
	"slices"
	"sync"
	"time"

	"attendance/internal/logger"
	"attendance/internal/model"
)

var (
	// ErrNotAvailable is returned when the detection capability failed to
	// initialize.
	ErrNotAvailable = errors.New("face recognition is not available")
	// ErrNoRoster is returned when detection is started with an empty roster.
	ErrNoRoster = errors.New("no known faces provided")
)

// unknownName labels faces that did not match any roster entry.
const unknownName = "Unknown"

// FrameProvider supplies frames to the recognition loop. The camera service
// satisfies it; the session pulls frames on its own schedule so recognition
// keeps working even when no viewer is consuming the stream.
type FrameProvider interface {
	Frame() (jpeg []byte, taken time.Time, ok bool)
}

// Publisher receives each detection snapshot as it is produced.
type Publisher interface {
	Publish(faces []model.DetectedFace)
}

// Options tune the recognition session.
type Options struct {
	Tolerance   float64       // max match distance (default 0.6)
	Interval    time.Duration // pacing of the recognition loop
	StopTimeout time.Duration // bound on joining the recognition worker
}

func (o *Options) applyDefaults() {
	if o.Tolerance <= 0 {
		o.Tolerance = 0.6
	}
	if o.Interval <= 0 {
		o.Interval = 250 * time.Millisecond
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 2 * time.Second
	}
}

// Session matches faces in live frames against a known-face roster. The
// roster is snapshotted at start and immutable until the session restarts.
// The latest annotated frame and detection list are fully replaced each
// cycle; callers needing history must persist snapshots themselves.
type Session struct {
	capability Capability // nil when recognition is unavailable
	frames     FrameProvider
	publisher  Publisher // optional
	log        *logger.Logger
	opts       Options

	mu     sync.Mutex // session lifecycle
	active bool
	roster []model.KnownFace
	stopCh chan struct{}
	doneCh chan struct{}

	snapMu    sync.RWMutex // latest annotated frame + detection snapshot
	annotated []byte
	faces     []model.DetectedFace
}

// NewSession creates a recognition session. A nil capability produces a
// session that reports unavailable but is otherwise safe to call.
func NewSession(capability Capability, frames FrameProvider, publisher Publisher, log *logger.Logger, opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		capability: capability,
		frames:     frames,
		publisher:  publisher,
		log:        log,
		opts:       opts,
	}
}

// Available reports whether the detection capability initialized.
func (s *Session) Available() bool {
	return s.capability != nil
}

// EncodeFromImage delegates to the capability. ok is false — not an error —
// when the image contains zero or ambiguous faces.
func (s *Session) EncodeFromImage(path string) ([]float32, bool, error) {
	if s.capability == nil {
		return nil, false, ErrNotAvailable
	}
	return s.capability.EncodeImage(path)
}

// StartDetection snapshots the roster and starts the recognition loop.
// Starting an already-active session is a no-op success and does not reload
// the roster; changing the roster requires stop and restart.
func (s *Session) StartDetection(roster []model.KnownFace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capability == nil {
		return ErrNotAvailable
	}
	if s.active {
		s.log.Info("Face detection already active")
		return nil
	}
	if len(roster) == 0 {
		return ErrNoRoster
	}

	s.roster = slices.Clone(roster)
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.active = true

	go s.detectLoop(s.roster, s.stopCh, s.doneCh)

	s.log.Info("Face detection started with %d known faces", len(roster))
	return nil
}

// StopDetection stops the recognition loop and clears the snapshot.
// Stopping an inactive session is a no-op.
func (s *Session) StopDetection() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.active = false
	s.stopCh = nil
	close(stopCh)
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-time.After(s.opts.StopTimeout):
		s.log.Warning("Recognition worker did not stop within %v", s.opts.StopTimeout)
	}

	s.snapMu.Lock()
	s.annotated = nil
	s.faces = nil
	s.snapMu.Unlock()

	s.log.Info("Face detection stopped")
}

// Active reports whether the recognition loop is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// detectLoop pulls frames, matches faces against the roster and publishes a
// fully-replaced snapshot each cycle.
func (s *Session) detectLoop(roster []model.KnownFace, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, taken, ok := s.frames.Frame()
		if !ok {
			continue
		}

		regions, err := s.capability.Detect(frame)
		if err != nil {
			s.log.Warning("Face detection failed: %v", err)
			continue
		}

		faces := s.resolve(regions, roster, taken)

		annotated := frame
		if len(faces) > 0 {
			if drawn, err := s.capability.Annotate(frame, faces); err == nil {
				annotated = drawn
			} else {
				s.log.Warning("Failed to annotate frame: %v", err)
			}
		}

		s.snapMu.Lock()
		s.annotated = annotated
		s.faces = faces
		s.snapMu.Unlock()

		if s.publisher != nil {
			s.publisher.Publish(faces)
		}
	}
}

// resolve matches each detected region against the roster snapshot. Regions
// without a match within tolerance are reported with no student identity and
// the sub-threshold confidence of their closest roster entry.
func (s *Session) resolve(regions []Region, roster []model.KnownFace, taken time.Time) []model.DetectedFace {
	faces := make([]model.DetectedFace, 0, len(regions))
	for _, region := range regions {
		detected := model.DetectedFace{
			Name:      unknownName,
			X:         region.Box.Min.X,
			Y:         region.Box.Min.Y,
			Width:     region.Box.Dx(),
			Height:    region.Box.Dy(),
			Timestamp: taken,
		}

		match, ok := BestMatch(region.Vector, roster, s.opts.Tolerance)
		detected.Confidence = Confidence(match.Distance)
		if ok {
			detected.StudentID = match.Face.ID
			detected.Name = match.Face.Name
		}

		faces = append(faces, detected)
	}
	return faces
}

// Frame returns the latest annotated frame, or ok=false while inactive or
// before the first cycle completes.
func (s *Session) Frame() ([]byte, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	if s.annotated == nil {
		return nil, false
	}
	buf := make([]byte, len(s.annotated))
	copy(buf, s.annotated)
	return buf, true
}

// DetectedFaces returns the latest detection snapshot.
func (s *Session) DetectedFaces() []model.DetectedFace {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	return slices.Clone(s.faces)
}
