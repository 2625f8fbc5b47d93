// Package face wraps an opaque face-detection capability in a stateful
// recognition session that matches detected faces against a roster snapshot.
package face

import (
	"image"

	"attendance/internal/model"
)

// Region is one detected face area with its embedding vector.
type Region struct {
	Box    image.Rectangle
	Vector []float32
}

// Capability is the opaque detection/encoding collaborator. The session never
// looks inside it; any implementation that can find faces and produce
// comparable vectors will do.
type Capability interface {
	// EncodeImage computes the embedding for the single face in an image
	// file. ok is false — not an error — when the image contains zero or
	// ambiguous (multiple) faces.
	EncodeImage(path string) (vec []float32, ok bool, err error)

	// Detect finds face regions in a JPEG frame.
	Detect(jpeg []byte) ([]Region, error)

	// Annotate draws bounding boxes and labels for the given faces onto a
	// JPEG frame and returns the annotated copy.
	Annotate(jpeg []byte, faces []model.DetectedFace) ([]byte, error)
}
