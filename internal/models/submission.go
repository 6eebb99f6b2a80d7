package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the archived record of a completed application.
// Only completed submissions are persisted; timed-out sessions leave
// no record.
type Submission struct {
	ID            uuid.UUID `json:"id"`
	EventName     string    `json:"event_name"`
	ApplicantID   uuid.UUID `json:"applicant_id"`
	ApplicantName string    `json:"applicant_name"`
	Answers       []Answer  `json:"answers"`
	CreatedAt     time.Time `json:"created_at"`
}
