package model

import (
	"time"

	"studycal/internal/schedule"
)

// Course is a selectable study programme. Its subjects are loaded separately
// through a courses.Source, in sequence order.
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// SourceID names the courses.Source the course came from (e.g. "static",
	// "catalog", "ics:<id>").
	SourceID string `json:"source_id,omitempty"`
}

// Quote is a motivational quote shown next to the calendar.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// PinEvent describes a committed pin: the user asserted that Subject starts on
// Date, and the course anchor moved from PreviousAnchor to Anchor.
type PinEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	CourseID  string       `json:"course"`
	Subject   string       `json:"subject"`
	Index     int          `json:"index"`
	Date      schedule.Day `json:"adjustmentDate"`

	PreviousAnchor schedule.Day `json:"previousAnchor"`
	Anchor         schedule.Day `json:"anchor"`
}
