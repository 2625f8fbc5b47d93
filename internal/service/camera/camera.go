package camera

import (
	"errors"
	"sync"
	"time"

	"attendance/internal/logger"
)

// ErrDeviceUnavailable is returned when neither the requested camera index
// nor any fallback index can be opened.
var ErrDeviceUnavailable = errors.New("no usable camera device")

// fallbackOrder is probed when the requested index fails to open.
var fallbackOrder = [...]int{1, 2, 0}

// State describes the camera lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Device is one open camera handle. Read returns a single JPEG-encoded frame.
type Device interface {
	Read() ([]byte, error)
	Close() error
}

// Opener opens the camera at the given index. Resolution and framerate hints
// are applied by the opener.
type Opener func(index int) (Device, error)

// Stamper draws a timestamp and liveness marker onto a JPEG frame.
type Stamper func(jpeg []byte, taken time.Time) ([]byte, error)

// Frame is the latest captured frame. Only the single most recent frame is
// retained; there is no history or queue.
type Frame struct {
	JPEG  []byte
	Taken time.Time
}

// Options tune the capture loop.
type Options struct {
	Index           int           // default device index
	CaptureInterval time.Duration // pacing between reads (~60 Hz)
	ReadBackoff     time.Duration // wait after a failed read
	MaxReadFailures int           // consecutive failures treated as fatal
	StopTimeout     time.Duration // bound on joining the capture worker
}

func (o *Options) applyDefaults() {
	if o.CaptureInterval <= 0 {
		o.CaptureInterval = 16 * time.Millisecond
	}
	if o.ReadBackoff <= 0 {
		o.ReadBackoff = 100 * time.Millisecond
	}
	if o.MaxReadFailures <= 0 {
		o.MaxReadFailures = 30
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 2 * time.Second
	}
}

// Service owns the physical camera device: at most one handle is open at any
// time, and only the Service mutates it. Two independent critical sections
// guard the service: mu covers device lifecycle transitions, frameMu covers
// the single frame slot, so frame readers are never blocked by a slow
// start or stop.
type Service struct {
	open  Opener
	stamp Stamper
	log   *logger.Logger
	opts  Options

	mu     sync.Mutex // device lifecycle
	state  State
	device Device
	index  int
	stopCh chan struct{}
	doneCh chan struct{}

	frameMu sync.RWMutex // frame slot
	frame   Frame
}

// New creates a camera service. The stamper may be nil, in which case
// FrameWithOverlay returns plain frames.
func New(open Opener, stamp Stamper, log *logger.Logger, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		open:  open,
		stamp: stamp,
		log:   log,
		opts:  opts,
	}
}

// Start opens the camera and launches the capture worker. A negative index
// selects the configured default. Start is idempotent while running. When the
// requested index fails, the fallback order [1, 2, 0] is probed and the first
// index that opens is adopted.
func (s *Service) Start(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.log.Info("Camera already running on index %d", s.index)
		return nil
	}
	if index < 0 {
		index = s.opts.Index
	}

	s.state = StateStarting
	dev, adopted, err := s.probe(index)
	if err != nil {
		s.state = StateStopped
		return err
	}

	s.device = dev
	s.index = adopted
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.state = StateRunning

	go s.captureLoop(dev, s.stopCh, s.doneCh)

	s.log.Info("Camera %d started", adopted)
	return nil
}

// probe opens the requested index, falling back through fallbackOrder.
func (s *Service) probe(index int) (Device, int, error) {
	dev, err := s.open(index)
	if err == nil {
		return dev, index, nil
	}
	s.log.Warning("Failed to open camera %d: %v", index, err)

	for _, alt := range fallbackOrder {
		if alt == index {
			continue
		}
		dev, err = s.open(alt)
		if err == nil {
			s.log.Info("Adopted fallback camera %d", alt)
			return dev, alt, nil
		}
	}

	s.log.Error("No working camera found")
	return nil, 0, ErrDeviceUnavailable
}

// Stop cancels the capture worker, joins it with a bounded timeout, releases
// the device and clears the frame slot. Stop is idempotent; stopping a
// never-started service is a no-op success.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh, dev := s.stopCh, s.doneCh, s.device
	s.stopCh = nil
	close(stopCh)
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-time.After(s.opts.StopTimeout):
		s.log.Warning("Capture worker did not stop within %v", s.opts.StopTimeout)
	}

	s.mu.Lock()
	if s.device == dev && dev != nil {
		if err := dev.Close(); err != nil {
			s.log.Warning("Failed to release camera: %v", err)
		}
		s.device = nil
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.clearFrame()
	s.log.Info("Camera stopped")
	return nil
}

// captureLoop reads frames at a capped rate, replacing the frame slot on
// every successful read. Transient read failures are retried with a short
// backoff; a long run of consecutive failures means the device has become
// unreadable and ends the loop.
func (s *Service) captureLoop(dev Device, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.opts.CaptureInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		data, err := dev.Read()
		if err != nil {
			failures++
			s.log.Warning("Failed to read frame: %v", err)
			if failures >= s.opts.MaxReadFailures {
				s.log.Error("Camera unreadable after %d consecutive failures, stopping capture", failures)
				s.release(dev)
				return
			}
			select {
			case <-stopCh:
				return
			case <-time.After(s.opts.ReadBackoff):
			}
			continue
		}
		failures = 0

		s.frameMu.Lock()
		s.frame = Frame{JPEG: data, Taken: time.Now()}
		s.frameMu.Unlock()
	}
}

// release is the fatal-error path out of the capture loop. The device
// identity check keeps it from racing a concurrent Stop.
func (s *Service) release(dev Device) {
	s.mu.Lock()
	if s.device == dev {
		dev.Close()
		s.device = nil
		s.state = StateStopped
	}
	s.mu.Unlock()

	s.clearFrame()
}

func (s *Service) clearFrame() {
	s.frameMu.Lock()
	s.frame = Frame{}
	s.frameMu.Unlock()
}

// Frame returns a copy of the latest captured frame. It never blocks waiting
// for a new frame; ok is false while the slot is empty.
func (s *Service) Frame() (jpeg []byte, taken time.Time, ok bool) {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()

	if s.frame.JPEG == nil {
		return nil, time.Time{}, false
	}
	buf := make([]byte, len(s.frame.JPEG))
	copy(buf, s.frame.JPEG)
	return buf, s.frame.Taken, true
}

// FrameWithOverlay returns the latest frame stamped with its capture time and
// a liveness marker. Stamping failures are swallowed; the unstamped frame is
// still returned.
func (s *Service) FrameWithOverlay() (jpeg []byte, taken time.Time, ok bool) {
	frame, ts, ok := s.Frame()
	if !ok || s.stamp == nil {
		return frame, ts, ok
	}

	stamped, err := s.stamp(frame, ts)
	if err != nil {
		return frame, ts, true
	}
	return stamped, ts, true
}

// Running reports whether the capture worker is active.
func (s *Service) Running() bool {
	return s.State() == StateRunning
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index returns the device index currently in use.
func (s *Service) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}
