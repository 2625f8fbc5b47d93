package face

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"attendance/internal/config"
	"attendance/internal/logger"
	"attendance/internal/model"
)

const (
	// detectConfidence is the minimum detector score for a face region.
	detectConfidence = 0.5
	// embedSize is the input resolution of the embedding network.
	embedSize = 96
)

var (
	matchedColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	unmatchedColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// GocvCapability implements Capability with two DNNs: an SSD face detector
// and an embedding network producing 128-dimensional vectors.
type GocvCapability struct {
	detector gocv.Net
	embedder gocv.Net
	mu       sync.Mutex // gocv nets are not safe for concurrent Forward
	log      *logger.Logger
}

// NewGocvCapability loads the detection and embedding networks from the
// configured paths. An error leaves the recognition session unavailable
// rather than crashing the process.
func NewGocvCapability(cfg *config.Config, log *logger.Logger) (*GocvCapability, error) {
	for _, path := range []string{cfg.DetectorModelPath, cfg.DetectorConfigPath, cfg.EmbedderModelPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}

	detector := gocv.ReadNet(cfg.DetectorModelPath, cfg.DetectorConfigPath)
	if detector.Empty() {
		return nil, errors.New("failed to load face detection network")
	}

	embedder := gocv.ReadNet(cfg.EmbedderModelPath, "")
	if embedder.Empty() {
		detector.Close()
		return nil, errors.New("failed to load face embedding network")
	}

	for _, net := range []*gocv.Net{&detector, &embedder} {
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			log.Warning("Could not set network backend: %v", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			log.Warning("Could not set network target: %v", err)
		}
	}

	log.Info("Face recognition networks initialized")
	return &GocvCapability{detector: detector, embedder: embedder, log: log}, nil
}

// Close releases the networks.
func (c *GocvCapability) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detector.Close()
	c.embedder.Close()
}

// Detect finds face regions in a JPEG frame and computes their embeddings.
func (c *GocvCapability) Detect(jpeg []byte) ([]Region, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	return c.detectMat(mat)
}

// detectMat runs the detector over a decoded image. Callers hold c.mu.
func (c *GocvCapability) detectMat(mat gocv.Mat) ([]Region, error) {
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(300, 300),
		gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	c.detector.SetInput(blob, "")
	out := c.detector.Forward("")
	defer out.Close()

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())

	var regions []Region
	// The detector emits rows of 7 floats: [_, classID, confidence, l, t, r, b]
	// with normalized coordinates.
	for i := 0; i < out.Total(); i += 7 {
		confidence := out.GetFloatAt(0, i+2)
		if confidence < detectConfidence {
			continue
		}

		left := int(out.GetFloatAt(0, i+3) * float32(mat.Cols()))
		top := int(out.GetFloatAt(0, i+4) * float32(mat.Rows()))
		right := int(out.GetFloatAt(0, i+5) * float32(mat.Cols()))
		bottom := int(out.GetFloatAt(0, i+6) * float32(mat.Rows()))

		box := image.Rect(left, top, right, bottom).Intersect(bounds)
		if box.Empty() {
			continue
		}

		vec, err := c.embed(mat, box)
		if err != nil {
			c.log.Warning("Failed to embed face region: %v", err)
			regions = append(regions, Region{Box: box})
			continue
		}
		regions = append(regions, Region{Box: box, Vector: vec})
	}

	return regions, nil
}

// embed computes the embedding vector for one face region. Callers hold c.mu.
func (c *GocvCapability) embed(mat gocv.Mat, box image.Rectangle) ([]float32, error) {
	region := mat.Region(box)
	defer region.Close()

	blob := gocv.BlobFromImage(region, 1.0/255.0, image.Pt(embedSize, embedSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	c.embedder.SetInput(blob, "")
	out := c.embedder.Forward("")
	defer out.Close()

	vec := make([]float32, out.Total())
	for i := range vec {
		vec[i] = out.GetFloatAt(0, i)
	}
	return vec, nil
}

// EncodeImage computes the embedding for the single face in an image file.
// Zero or multiple faces yield ok=false without an error.
func (c *GocvCapability) EncodeImage(path string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, false, fmt.Errorf("could not read image: %s", path)
	}
	defer mat.Close()

	regions, err := c.detectMat(mat)
	if err != nil {
		return nil, false, err
	}
	if len(regions) != 1 || len(regions[0].Vector) == 0 {
		return nil, false, nil
	}

	return regions[0].Vector, true, nil
}

// Annotate draws labeled bounding boxes for the given faces onto a frame.
func (c *GocvCapability) Annotate(jpeg []byte, faces []model.DetectedFace) ([]byte, error) {
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	for _, f := range faces {
		boxColor := unmatchedColor
		if f.StudentID != 0 {
			boxColor = matchedColor
		}

		box := image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
		gocv.Rectangle(&mat, box, boxColor, 2)

		label := fmt.Sprintf("%s (%.0f%%)", f.Name, f.Confidence*100)
		origin := image.Pt(f.X, f.Y-8)
		if origin.Y < 12 {
			origin.Y = f.Y + f.Height + 18
		}
		gocv.PutText(&mat, label, origin, gocv.FontHersheySimplex, 0.5, boxColor, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
