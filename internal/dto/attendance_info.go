package dto

// AttendanceInfo is the JSON shape of one attendance record.
type AttendanceInfo struct {
	ID              int64   `json:"id"`
	StudentID       int64   `json:"student_id"`
	Date            string  `json:"date"`
	TimeIn          string  `json:"time_in"`
	Status          string  `json:"status"`
	ConfidenceScore float64 `json:"confidence_score"`
}
