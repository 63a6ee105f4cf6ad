package access

import (
	"errors"

	"github.com/Gabrielpanashe/Face-Access-System/internal/vision"
)

// Errors surfaced to the transport layer. Denials inside Verify resolve to a
// VerifyResult instead; these errors are for inputs that never reach the
// decision stages (bad payload, rejected enrollment, storage faults).
var (
	// ErrInvalidImage re-exports the normalizer failure for boundary mapping.
	ErrInvalidImage = vision.ErrInvalidImage

	// ErrNoFaceDetected means the embedding stage could not find a face.
	ErrNoFaceDetected = vision.ErrNoFace

	// ErrLivenessRejected means enrollment was refused because the submitted
	// face looks like a spoof.
	ErrLivenessRejected = errors.New("liveness check rejected the submitted face")

	// ErrInvalidName means the enrollment name is empty.
	ErrInvalidName = errors.New("name must not be empty")
)

// DenyReason distinguishes why a verification was denied. Reasons are
// informative enough for debugging but never reveal whether a particular
// name is enrolled.
type DenyReason string

const (
	DenyNone           DenyReason = ""
	DenyNoFace         DenyReason = "no_face"
	DenySpoofSuspected DenyReason = "spoof_suspected"
	DenyNoMatch        DenyReason = "no_match"
	DenyNoneEnrolled   DenyReason = "no_identities_enrolled"
)

// UnknownIdentity is reported on every denial, regardless of cause.
const UnknownIdentity = "Unknown"

// VerifyResult is the outcome of one verification.
type VerifyResult struct {
	Status          string     `json:"status"` // success, denied
	Identity        string     `json:"identity"`
	MatchConfidence float64    `json:"match_confidence"`
	Access          bool       `json:"access"`
	Reason          DenyReason `json:"reason,omitempty"`
	LivenessScore   float64    `json:"liveness_score,omitempty"`
}

func deniedResult(reason DenyReason, matchConfidence, livenessScore float64) *VerifyResult {
	return &VerifyResult{
		Status:          "denied",
		Identity:        UnknownIdentity,
		MatchConfidence: matchConfidence,
		Access:          false,
		Reason:          reason,
		LivenessScore:   livenessScore,
	}
}

// EnrollResult is the outcome of a successful enrollment.
type EnrollResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// Updated is true when an existing identity's embedding was replaced.
	Updated bool `json:"updated"`
}
