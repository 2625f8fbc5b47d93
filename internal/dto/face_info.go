package dto

import (
	"math"
	"time"

	"attendance/internal/model"
)

// FaceInfo is the JSON shape of one detected face.
// Location is [x, y, width, height].
type FaceInfo struct {
	StudentID  int64   `json:"student_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Location   [4]int  `json:"location"`
	Timestamp  string  `json:"timestamp"`
}

// FacesResponse wraps the current detection snapshot.
type FacesResponse struct {
	Faces []FaceInfo `json:"faces"`
}

// NewFaceInfo converts one detection to its JSON shape, rounding confidence
// to two decimals.
func NewFaceInfo(f model.DetectedFace) FaceInfo {
	return FaceInfo{
		StudentID:  f.StudentID,
		Name:       f.Name,
		Confidence: math.Round(f.Confidence*100) / 100,
		Location:   [4]int{f.X, f.Y, f.Width, f.Height},
		Timestamp:  f.Timestamp.Format(time.RFC3339),
	}
}

// NewFacesResponse converts a detection snapshot to its JSON shape.
func NewFacesResponse(faces []model.DetectedFace) FacesResponse {
	infos := make([]FaceInfo, 0, len(faces))
	for _, f := range faces {
		infos = append(infos, NewFaceInfo(f))
	}
	return FacesResponse{Faces: infos}
}
