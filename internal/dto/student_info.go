package dto

// StudentInfo is the JSON shape of one roster entry. Encodings are never
// exposed over the API; HasEncoding reports whether the student can be
// recognized.
type StudentInfo struct {
	ID          int64  `json:"id"`
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Year        string `json:"year,omitempty"`
	Section     string `json:"section,omitempty"`
	HasEncoding bool   `json:"has_encoding"`
}
