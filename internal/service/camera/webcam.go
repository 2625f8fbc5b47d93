package camera

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var overlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// GocvOpener returns an Opener backed by a local video device. The resolution
// and framerate hints are applied to every opened handle; drivers are free to
// ignore them.
func GocvOpener(width, height, fps int) Opener {
	return func(index int) (Device, error) {
		cap, err := gocv.OpenVideoCapture(index)
		if err != nil {
			return nil, fmt.Errorf("open camera %d: %w", index, err)
		}
		if !cap.IsOpened() {
			cap.Close()
			return nil, fmt.Errorf("camera %d did not open", index)
		}

		cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(height))
		cap.Set(gocv.VideoCaptureFPS, float64(fps))

		return &webcam{cap: cap, mat: gocv.NewMat()}, nil
	}
}

// webcam adapts a gocv VideoCapture to the Device interface. Read is only
// ever called from the capture loop, so the scratch Mat needs no locking.
type webcam struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

func (w *webcam) Read() ([]byte, error) {
	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, errors.New("no frame available")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, w.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

func (w *webcam) Close() error {
	w.mat.Close()
	return w.cap.Close()
}

// StampTimestamp draws the capture time and a LIVE marker onto a JPEG frame.
func StampTimestamp(jpeg []byte, taken time.Time) ([]byte, error) {
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	gocv.PutText(&mat, taken.Format("2006-01-02 15:04:05"), image.Pt(10, 30),
		gocv.FontHersheySimplex, 0.7, overlayColor, 2)
	gocv.PutText(&mat, "LIVE", image.Pt(10, mat.Rows()-20),
		gocv.FontHersheySimplex, 0.6, overlayColor, 2)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
