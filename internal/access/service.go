package access

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Gabrielpanashe/Face-Access-System/internal/models"
	"github.com/Gabrielpanashe/Face-Access-System/internal/observability"
	"github.com/Gabrielpanashe/Face-Access-System/internal/vision"
)

// Store is the persistence collaborator. Each call is atomic: an upsert or
// append either commits fully or rolls back.
type Store interface {
	ListIdentities(ctx context.Context) ([]models.Identity, error)
	FindIdentityByName(ctx context.Context, name string) (*models.Identity, error)
	UpsertIdentity(ctx context.Context, name string, embedding []float32) (*models.Identity, error)
	AppendAccessRecord(ctx context.Context, identityID *uuid.UUID, status models.AccessStatus, matchConfidence int, livenessScore *int) (*models.AccessRecord, error)
}

// Locator finds the most prominent face region, or nil when none is found.
type Locator interface {
	Locate(img image.Image) (*vision.FaceRegion, error)
}

// LivenessChecker resolves a face crop to a verdict. Implementations must
// fail secure: operational faults yield a not-live verdict, never an error.
type LivenessChecker interface {
	Assess(face image.Image) vision.Verdict
}

// Encoder produces an identity embedding from a probe.
type Encoder interface {
	Encode(img image.Image, region *vision.FaceRegion) ([]float32, error)
}

// ImageStore persists reference face crops for audit tooling. Failures here
// never affect a decision outcome.
type ImageStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Publisher emits access events for the dashboard feed and external
// integrations. Best-effort.
type Publisher interface {
	PublishAccess(ctx context.Context, ev models.AccessEvent) error
}

// Config carries the decision thresholds and audit policy.
type Config struct {
	// MatchThreshold is the cosine-distance bound; a probe matches only when
	// its best distance is strictly below it.
	MatchThreshold float64
	// LogDenied also writes denied and spoof-rejected verifications to the
	// access log. Grants are always written.
	LogDenied bool
}

// Service composes the biometric pipeline into the two public operations,
// Enroll and Verify, and owns the ordering and short-circuit rules between
// stages.
type Service struct {
	store    Store
	locator  Locator
	liveness LivenessChecker
	encoder  Encoder
	images   ImageStore
	events   Publisher
	cfg      Config
}

func NewService(store Store, locator Locator, liveness LivenessChecker, encoder Encoder, images ImageStore, events Publisher, cfg Config) *Service {
	return &Service{
		store:    store,
		locator:  locator,
		liveness: liveness,
		encoder:  encoder,
		images:   images,
		events:   events,
		cfg:      cfg,
	}
}

// Verify decides whether the submitted photo grants access.
//
// Stage order: decode, locate, liveness, embed, match. A spoof verdict
// short-circuits before any embedding or matching runs. Every denial path
// resolves to a result; only undecodable payloads and storage faults return
// an error.
func (s *Service) Verify(ctx context.Context, payload string) (*VerifyResult, error) {
	img, err := stageTimed("decode", func() (image.Image, error) {
		return vision.DecodeImage(payload)
	})
	if err != nil {
		observability.Verifications.WithLabelValues("error", "invalid_image").Inc()
		return nil, err
	}

	region, err := stageTimed("locate", func() (*vision.FaceRegion, error) {
		return s.locator.Locate(img)
	})
	if err != nil {
		// Detection faults degrade to the no-region path; the encoder's own
		// enforcement decides the outcome. Never a grant.
		slog.Warn("face localization failed", "error", err)
		region = nil
	}

	var livenessScore *int
	var verdictConf float64
	if region != nil {
		verdict := s.assessTimed(region.Image)
		verdictConf = verdict.Confidence
		score := int(verdict.Confidence * 100)
		livenessScore = &score

		if !verdict.IsLive {
			observability.LivenessRejections.Inc()
			res := deniedResult(DenySpoofSuspected, 0, verdict.Confidence)
			if err := s.recordDenied(ctx, livenessScore, 0); err != nil {
				return nil, err
			}
			s.publishVerify(ctx, res)
			observability.Verifications.WithLabelValues("denied", string(DenySpoofSuspected)).Inc()
			return res, nil
		}
	}

	embedding, err := stageTimed("embed", func() ([]float32, error) {
		return s.encoder.Encode(img, region)
	})
	if err != nil {
		res := deniedResult(DenyNoFace, 0, verdictConf)
		if err := s.recordDenied(ctx, livenessScore, 0); err != nil {
			return nil, err
		}
		s.publishVerify(ctx, res)
		observability.Verifications.WithLabelValues("denied", string(DenyNoFace)).Inc()
		return res, nil
	}

	// Point-in-time snapshot of the enrolled population. An enrollment that
	// commits after this fetch is not visible to this verification.
	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	if len(identities) == 0 {
		res := deniedResult(DenyNoneEnrolled, 0, verdictConf)
		if err := s.recordDenied(ctx, livenessScore, 0); err != nil {
			return nil, err
		}
		s.publishVerify(ctx, res)
		observability.Verifications.WithLabelValues("denied", string(DenyNoneEnrolled)).Inc()
		return res, nil
	}

	start := time.Now()
	matched, distance := Match(embedding, identities, s.cfg.MatchThreshold)
	observability.InferenceDuration.WithLabelValues("match").Observe(time.Since(start).Seconds())

	// Distances beyond 1.0 (opposed or degenerate embeddings) clamp to zero
	// confidence; the audit row stores a 0-100 percentage.
	confidence := 1.0 - distance
	if confidence < 0 {
		confidence = 0
	}

	if matched == nil {
		res := deniedResult(DenyNoMatch, confidence, verdictConf)
		if err := s.recordDenied(ctx, livenessScore, int(confidence*100)); err != nil {
			return nil, err
		}
		s.publishVerify(ctx, res)
		observability.Verifications.WithLabelValues("denied", string(DenyNoMatch)).Inc()
		return res, nil
	}

	if _, err := s.store.AppendAccessRecord(ctx, &matched.ID, models.AccessGranted, int(confidence*100), livenessScore); err != nil {
		return nil, fmt.Errorf("append access record: %w", err)
	}

	res := &VerifyResult{
		Status:          "success",
		Identity:        matched.Name,
		MatchConfidence: confidence,
		Access:          true,
		LivenessScore:   verdictConf,
	}
	s.publishVerify(ctx, res)
	observability.Verifications.WithLabelValues("granted", "").Inc()

	slog.Info("access granted", "identity", matched.Name, "confidence", confidence)
	return res, nil
}

// Enroll registers (or re-registers) a named identity's reference embedding.
func (s *Service) Enroll(ctx context.Context, name, payload string) (*EnrollResult, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	img, err := stageTimed("decode", func() (image.Image, error) {
		return vision.DecodeImage(payload)
	})
	if err != nil {
		observability.Enrollments.WithLabelValues("invalid_image").Inc()
		return nil, err
	}

	region, err := stageTimed("locate", func() (*vision.FaceRegion, error) {
		return s.locator.Locate(img)
	})
	if err != nil {
		slog.Warn("face localization failed", "error", err)
		region = nil
	}

	if region != nil {
		verdict := s.assessTimed(region.Image)
		if !verdict.IsLive {
			observability.LivenessRejections.Inc()
			observability.Enrollments.WithLabelValues("liveness_rejected").Inc()
			return nil, fmt.Errorf("%w (confidence %.2f)", ErrLivenessRejected, verdict.Confidence)
		}
	}

	embedding, err := stageTimed("embed", func() ([]float32, error) {
		return s.encoder.Encode(img, region)
	})
	if err != nil {
		observability.Enrollments.WithLabelValues("no_face").Inc()
		return nil, err
	}

	existing, err := s.store.FindIdentityByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	identity, err := s.store.UpsertIdentity(ctx, name, embedding)
	if err != nil {
		observability.Enrollments.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("upsert identity: %w", err)
	}

	s.storeReferenceImage(ctx, identity.ID, img, region)
	s.publishEnroll(ctx, name)
	observability.Enrollments.WithLabelValues("success").Inc()

	updated := existing != nil
	msg := fmt.Sprintf("Biometric profile for %s registered.", name)
	if updated {
		msg = fmt.Sprintf("Biometric profile for %s updated.", name)
	}

	slog.Info("identity enrolled", "name", name, "updated", updated)
	return &EnrollResult{Status: "success", Message: msg, Updated: updated}, nil
}

// recordDenied appends a denied access record when the audit policy asks
// for it. Grants are recorded unconditionally by the caller.
func (s *Service) recordDenied(ctx context.Context, livenessScore *int, matchConfidence int) error {
	if !s.cfg.LogDenied {
		return nil
	}
	if _, err := s.store.AppendAccessRecord(ctx, nil, models.AccessDenied, matchConfidence, livenessScore); err != nil {
		return fmt.Errorf("append access record: %w", err)
	}
	return nil
}

// storeReferenceImage persists the enrolled face crop for audit tooling.
// Best-effort: a failure is logged and never fails the enrollment.
func (s *Service) storeReferenceImage(ctx context.Context, id uuid.UUID, img image.Image, region *vision.FaceRegion) {
	if s.images == nil {
		return
	}
	ref := img
	if region != nil {
		ref = region.Image
	}
	key := fmt.Sprintf("faces/%s.jpg", id)
	if err := s.images.PutObject(ctx, key, vision.EncodeJPEG(ref, 85), "image/jpeg"); err != nil {
		slog.Warn("store reference image", "key", key, "error", err)
	}
}

func (s *Service) publishVerify(ctx context.Context, res *VerifyResult) {
	if s.events == nil {
		return
	}
	status := models.AccessDenied
	if res.Access {
		status = models.AccessGranted
	}
	ev := models.AccessEvent{
		Kind:            "verify",
		Status:          status,
		Identity:        res.Identity,
		Reason:          string(res.Reason),
		MatchConfidence: res.MatchConfidence,
		LivenessScore:   res.LivenessScore,
		Timestamp:       time.Now().UTC(),
	}
	if err := s.events.PublishAccess(ctx, ev); err != nil {
		slog.Warn("publish access event", "error", err)
	}
}

func (s *Service) publishEnroll(ctx context.Context, name string) {
	if s.events == nil {
		return
	}
	ev := models.AccessEvent{
		Kind:      "enroll",
		Status:    models.AccessGranted,
		Identity:  name,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishAccess(ctx, ev); err != nil {
		slog.Warn("publish access event", "error", err)
	}
}

func (s *Service) assessTimed(face image.Image) vision.Verdict {
	start := time.Now()
	verdict := s.liveness.Assess(face)
	observability.InferenceDuration.WithLabelValues("liveness").Observe(time.Since(start).Seconds())
	return verdict
}

func stageTimed[T any](stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	observability.InferenceDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return v, err
}

// IsUserError reports whether err maps to a client-side failure at the
// transport boundary.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidImage) ||
		errors.Is(err, ErrNoFaceDetected) ||
		errors.Is(err, ErrInvalidName)
}
