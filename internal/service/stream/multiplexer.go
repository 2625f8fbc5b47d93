// Package stream serves a continuous JPEG sequence to viewers as a
// boundary-delimited multipart stream.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"attendance/internal/logger"
)

const boundary = "frame"

// ContentType is the MIME type served to stream viewers.
const ContentType = "multipart/x-mixed-replace; boundary=" + boundary

// Source yields the latest frame of one producer. Frame must never block.
type Source interface {
	Frame() ([]byte, bool)
	Running() bool
}

// Options tune stream pacing.
type Options struct {
	EmitInterval time.Duration // delivered cadence (~30 Hz)
	IdleInterval time.Duration // poll cadence while no frame is available
}

func (o *Options) applyDefaults() {
	if o.EmitInterval <= 0 {
		o.EmitInterval = 33 * time.Millisecond
	}
	if o.IdleInterval <= 0 {
		o.IdleInterval = 100 * time.Millisecond
	}
}

// Multiplexer fans the live frame sequence out to any number of viewers.
// It prefers the annotated recognition frames and falls back to the raw
// camera feed, pacing emission independently of the capture rate.
type Multiplexer struct {
	primary  Source
	fallback Source
	log      *logger.Logger
	opts     Options
}

// NewMultiplexer creates a multiplexer over an annotated primary source and
// a raw fallback source.
func NewMultiplexer(primary, fallback Source, log *logger.Logger, opts Options) *Multiplexer {
	opts.applyDefaults()
	return &Multiplexer{
		primary:  primary,
		fallback: fallback,
		log:      log,
		opts:     opts,
	}
}

// Stream writes multipart JPEG parts to w until the context is cancelled,
// the viewer disconnects, or both sources stop running. Transient no-frame
// windows are tolerated with a short poll.
func (m *Multiplexer) Stream(ctx context.Context, w io.Writer) error {
	flusher, _ := w.(http.Flusher)

	for {
		frame, ok := m.primary.Frame()
		if !ok {
			frame, ok = m.fallback.Frame()
		}

		if !ok {
			if !m.primary.Running() && !m.fallback.Running() {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(m.opts.IdleInterval):
			}
			continue
		}

		if err := writePart(w, frame); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.opts.EmitInterval):
		}
	}
}

// writePart emits one boundary-delimited JPEG chunk.
func writePart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
