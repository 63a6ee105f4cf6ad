package dto

import (
	"github.com/google/uuid"
)

// VerifyRequest carries the probe image as a base64 string, optionally with
// a data-URI header, as submitted by the capture frontend.
type VerifyRequest struct {
	Image string `form:"image" binding:"required"`
}

type VerifyResponse struct {
	Status          string  `json:"status"`
	Identity        string  `json:"identity"`
	MatchConfidence float64 `json:"match_confidence"`
	Access          bool    `json:"access"`
	Reason          string  `json:"reason,omitempty"`
}

type EnrollRequest struct {
	Name  string `form:"name" binding:"required"`
	Image string `form:"image" binding:"required"`
}

type EnrollResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type IdentityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type AccessLogResponse struct {
	ID              uuid.UUID `json:"id"`
	IdentityName    string    `json:"identity_name"`
	Status          string    `json:"status"`
	LivenessScore   *int      `json:"liveness_score,omitempty"`
	MatchConfidence int       `json:"match_confidence"`
	Timestamp       string    `json:"timestamp"`
}

// WSEvent is a WebSocket message for the live dashboard feed.
type WSEvent struct {
	Type            string  `json:"type"` // access_granted, access_denied, identity_enrolled
	Identity        string  `json:"identity"`
	Reason          string  `json:"reason,omitempty"`
	MatchConfidence float64 `json:"match_confidence,omitempty"`
	Timestamp       string  `json:"timestamp"`
}
