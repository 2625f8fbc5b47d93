package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance/internal/config"
	"attendance/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

// fakeSource serves a settable frame.
type fakeSource struct {
	mu      sync.Mutex
	frame   []byte
	running bool
}

func (s *fakeSource) Frame() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *fakeSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *fakeSource) set(frame []byte, running bool) {
	s.mu.Lock()
	s.frame = frame
	s.running = running
	s.mu.Unlock()
}

// failingWriter errors after n successful writes, like a viewer hanging up.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errors.New("broken pipe")
	}
	w.n--
	return len(p), nil
}

func fastStreamOptions() Options {
	return Options{
		EmitInterval: time.Millisecond,
		IdleInterval: time.Millisecond,
	}
}

func TestStream_EmitsMultipartFrames(t *testing.T) {
	primary := &fakeSource{}
	primary.set([]byte("annotated"), true)
	m := NewMultiplexer(primary, &fakeSource{}, newTestLogger(t), fastStreamOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := m.Stream(ctx, &buf); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "--frame\r\n") {
		t.Error("output should contain the boundary marker")
	}
	if !strings.Contains(out, "Content-Type: image/jpeg\r\n") {
		t.Error("output should declare the part content type")
	}
	if !strings.Contains(out, "Content-Length: 9\r\n") {
		t.Error("output should carry the part length")
	}
	if !strings.Contains(out, "annotated\r\n") {
		t.Error("output should contain the frame payload")
	}
	if strings.Count(out, "--frame\r\n") < 2 {
		t.Error("expected more than one emitted part")
	}
}

func TestStream_PrefersPrimarySource(t *testing.T) {
	primary := &fakeSource{}
	primary.set([]byte("annotated"), true)
	fallback := &fakeSource{}
	fallback.set([]byte("raw"), true)
	m := NewMultiplexer(primary, fallback, newTestLogger(t), fastStreamOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := m.Stream(ctx, &buf); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if strings.Contains(buf.String(), "raw") {
		t.Error("fallback frames must not appear while the primary has frames")
	}
}

func TestStream_FallsBackToCamera(t *testing.T) {
	fallback := &fakeSource{}
	fallback.set([]byte("raw"), true)
	m := NewMultiplexer(&fakeSource{}, fallback, newTestLogger(t), fastStreamOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := m.Stream(ctx, &buf); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if !strings.Contains(buf.String(), "raw") {
		t.Error("expected fallback frames when the primary is empty")
	}
}

func TestStream_TerminatesWhenBothSourcesStopped(t *testing.T) {
	m := NewMultiplexer(&fakeSource{}, &fakeSource{}, newTestLogger(t), fastStreamOptions())

	done := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		done <- m.Stream(context.Background(), &buf)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean termination, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stream should return when both sources are stopped")
	}
}

func TestStream_WaitsThroughIdleWindow(t *testing.T) {
	// Source running but no frame yet: the stream must poll, not terminate.
	src := &fakeSource{}
	src.set(nil, true)
	m := NewMultiplexer(src, &fakeSource{}, newTestLogger(t), fastStreamOptions())

	done := make(chan error, 1)
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- m.Stream(ctx, &buf) }()

	time.Sleep(10 * time.Millisecond)
	src.set([]byte("late"), true)
	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if !strings.Contains(buf.String(), "late") {
		t.Error("frames appearing after an idle window should be delivered")
	}
}

func TestStream_ViewerDisconnect(t *testing.T) {
	primary := &fakeSource{}
	primary.set([]byte("annotated"), true)
	m := NewMultiplexer(primary, &fakeSource{}, newTestLogger(t), fastStreamOptions())

	err := m.Stream(context.Background(), &failingWriter{n: 4})
	if err == nil {
		t.Fatal("expected a write error when the viewer disconnects")
	}
}

func TestStream_ContextCancel(t *testing.T) {
	primary := &fakeSource{}
	primary.set([]byte("annotated"), true)
	m := NewMultiplexer(primary, &fakeSource{}, newTestLogger(t), fastStreamOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		done <- m.Stream(ctx, &buf)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled stream should return nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stream should return promptly on context cancel")
	}
}
