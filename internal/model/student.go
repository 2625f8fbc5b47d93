package model

import "time"

// Student is a registered student who can be matched by the recognition
// pipeline. Encoding holds the face embedding computed at registration time;
// students without an encoding are excluded from the recognition roster.
type Student struct {
	ID         int64
	StudentID  string // external identifier, e.g. "CS101"
	Name       string
	Email      string
	Phone      string
	Department string
	Year       string
	Section    string
	ImagePath  string
	Encoding   []float32
	IsActive   bool
	CreatedAt  time.Time
}
