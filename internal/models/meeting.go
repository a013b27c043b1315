package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus is the transcription lifecycle of a meeting.
type ProcessingStatus string

const (
	StatusNotSubmitted ProcessingStatus = "not_submitted"
	StatusProcessing   ProcessingStatus = "processing"
	StatusCompleted    ProcessingStatus = "completed"
)

// StatusFromFlag maps the stored nullable inProgress column to a status.
// NULL means never submitted, true processing, false completed.
func StatusFromFlag(inProgress *bool) ProcessingStatus {
	switch {
	case inProgress == nil:
		return StatusNotSubmitted
	case *inProgress:
		return StatusProcessing
	default:
		return StatusCompleted
	}
}

// Flag returns the stored inProgress value for the status.
func (s ProcessingStatus) Flag() *bool {
	var v bool
	switch s {
	case StatusProcessing:
		v = true
	case StatusCompleted:
		v = false
	default:
		return nil
	}
	return &v
}

// Valid reports whether s is a known status.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusNotSubmitted, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

// Summary is the backend-produced meeting summary.
type Summary struct {
	Text  string `json:"text"`
	Short string `json:"short,omitempty"`
}

// Segment is one transcript segment; times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Meeting is a recorded meeting owned by one user.
type Meeting struct {
	ID         uuid.UUID        `json:"id"`
	Owner      uuid.UUID        `json:"users"`
	Name       string           `json:"name"`
	Recording  string           `json:"recording"`
	Status     ProcessingStatus `json:"status"`
	Summary    *Summary         `json:"summary,omitempty"`
	Annotation []Segment        `json:"annotation,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
