package models

import (
	"time"

	"github.com/google/uuid"
)

type AccessStatus string

const (
	AccessGranted AccessStatus = "granted"
	AccessDenied  AccessStatus = "denied"
)

// AccessRecord is one append-only audit row for a completed verification.
// IdentityID is nil when no enrolled identity matched.
type AccessRecord struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	IdentityID      *uuid.UUID   `json:"identity_id,omitempty" db:"identity_id"`
	Status          AccessStatus `json:"status" db:"status"`
	LivenessScore   *int         `json:"liveness_score,omitempty" db:"liveness_score"`
	MatchConfidence int          `json:"match_confidence" db:"match_confidence"`
	Timestamp       time.Time    `json:"timestamp" db:"timestamp"`
}

// AccessEvent is the message published to NATS after a decision completes.
// It feeds the admin dashboard WebSocket and any external door controller.
type AccessEvent struct {
	Kind            string       `json:"kind"` // verify, enroll
	Status          AccessStatus `json:"status"`
	Identity        string       `json:"identity"`
	Reason          string       `json:"reason,omitempty"`
	MatchConfidence float64      `json:"match_confidence,omitempty"`
	LivenessScore   float64      `json:"liveness_score,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}
