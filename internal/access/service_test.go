package access

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gabrielpanashe/Face-Access-System/internal/models"
	"github.com/Gabrielpanashe/Face-Access-System/internal/vision"
)

// testImage is a tiny valid PNG payload, base64-encoded like a real probe.
func testImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakeStore struct {
	identities []models.Identity
	records    []models.AccessRecord
	listErr    error
	appendErr  error
}

func (f *fakeStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	return f.identities, f.listErr
}

func (f *fakeStore) FindIdentityByName(ctx context.Context, name string) (*models.Identity, error) {
	for i := range f.identities {
		if f.identities[i].Name == name {
			return &f.identities[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpsertIdentity(ctx context.Context, name string, embedding []float32) (*models.Identity, error) {
	for i := range f.identities {
		if f.identities[i].Name == name {
			f.identities[i].Embedding = embedding
			return &f.identities[i], nil
		}
	}
	ident := models.Identity{ID: uuid.New(), Name: name, Embedding: embedding}
	f.identities = append(f.identities, ident)
	return &ident, nil
}

func (f *fakeStore) AppendAccessRecord(ctx context.Context, identityID *uuid.UUID, status models.AccessStatus, matchConfidence int, livenessScore *int) (*models.AccessRecord, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	rec := models.AccessRecord{
		ID:              uuid.New(),
		IdentityID:      identityID,
		Status:          status,
		LivenessScore:   livenessScore,
		MatchConfidence: matchConfidence,
	}
	f.records = append(f.records, rec)
	return &rec, nil
}

type fakeLocator struct {
	region *vision.FaceRegion
	err    error
}

func (f *fakeLocator) Locate(img image.Image) (*vision.FaceRegion, error) {
	return f.region, f.err
}

type fakeLiveness struct {
	verdict vision.Verdict
	called  bool
}

func (f *fakeLiveness) Assess(face image.Image) vision.Verdict {
	f.called = true
	return f.verdict
}

type fakeEncoder struct {
	embedding []float32
	err       error
	called    bool
}

func (f *fakeEncoder) Encode(img image.Image, region *vision.FaceRegion) ([]float32, error) {
	f.called = true
	return f.embedding, f.err
}

func faceRegion() *vision.FaceRegion {
	return &vision.FaceRegion{
		Image: image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Rect:  image.Rect(0, 0, 4, 4),
	}
}

func liveVerdict() vision.Verdict {
	return vision.Verdict{IsLive: true, Confidence: 0.95, SpoofScore: 0.05}
}

func newTestService(store *fakeStore, loc *fakeLocator, live *fakeLiveness, enc *fakeEncoder, cfg Config) *Service {
	return NewService(store, loc, live, enc, nil, nil, cfg)
}

func TestVerify_InvalidImage(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeLocator{}, &fakeLiveness{}, &fakeEncoder{}, Config{MatchThreshold: 0.4})

	_, err := svc.Verify(context.Background(), "not-base64!!!")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Empty(t, store.records, "no access record for undecodable payloads")
}

func TestVerify_GrantedWritesOneRecord(t *testing.T) {
	// Stored embedding at cosine distance 0.1 from the probe.
	store := &fakeStore{identities: []models.Identity{
		{ID: uuid.New(), Name: "alice", Embedding: []float32{0.9, 0.43588989}},
	}}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "alice", res.Identity)
	assert.True(t, res.Access)
	assert.InDelta(t, 0.9, res.MatchConfidence, 1e-6)

	require.Len(t, store.records, 1)
	assert.Equal(t, models.AccessGranted, store.records[0].Status)
	require.NotNil(t, store.records[0].IdentityID)
}

func TestVerify_SpoofShortCircuits(t *testing.T) {
	store := &fakeStore{identities: []models.Identity{
		{ID: uuid.New(), Name: "alice", Embedding: []float32{1, 0}},
	}}
	live := &fakeLiveness{verdict: vision.Verdict{IsLive: false, Confidence: 0.9, SpoofScore: 0.9}}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, live, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.Equal(t, "denied", res.Status)
	assert.Equal(t, UnknownIdentity, res.Identity)
	assert.False(t, res.Access)
	assert.Equal(t, DenySpoofSuspected, res.Reason)
	assert.False(t, enc.called, "no embedding after a spoof verdict")
	assert.Empty(t, store.records, "spoof attempts are not logged by default")
}

func TestVerify_SpoofLoggedWhenConfigured(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLiveness{verdict: vision.Verdict{IsLive: false, Confidence: 0.9, SpoofScore: 0.9}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, live, &fakeEncoder{}, Config{MatchThreshold: 0.4, LogDenied: true})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.False(t, res.Access)
	require.Len(t, store.records, 1)
	assert.Equal(t, models.AccessDenied, store.records[0].Status)
	assert.Nil(t, store.records[0].IdentityID)
}

func TestVerify_NoFace(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLiveness{}
	enc := &fakeEncoder{err: vision.ErrNoFace}
	svc := newTestService(store, &fakeLocator{}, live, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.Equal(t, "denied", res.Status)
	assert.Equal(t, DenyNoFace, res.Reason)
	assert.False(t, live.called, "no liveness check without a face region")
	assert.Empty(t, store.records)
}

func TestVerify_NoIdentitiesEnrolled(t *testing.T) {
	store := &fakeStore{}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.Equal(t, "denied", res.Status)
	assert.Equal(t, UnknownIdentity, res.Identity)
	assert.False(t, res.Access)
	assert.Equal(t, DenyNoneEnrolled, res.Reason)
}

func TestVerify_NoMatchReportsBestDistance(t *testing.T) {
	// Nearest candidate is at distance 1.0: far beyond the threshold.
	store := &fakeStore{identities: []models.Identity{
		{ID: uuid.New(), Name: "bob", Embedding: []float32{0, 1}},
	}}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.Equal(t, "denied", res.Status)
	assert.Equal(t, UnknownIdentity, res.Identity)
	assert.Equal(t, DenyNoMatch, res.Reason)
	assert.InDelta(t, 0.0, res.MatchConfidence, 1e-6)
	assert.Empty(t, store.records, "unmatched probes are not logged by default")
}

func TestVerify_OpposedEmbeddingClampsConfidence(t *testing.T) {
	// Cosine distance to an opposed embedding is 2.0; the reported and
	// recorded confidence must floor at zero, not go negative.
	store := &fakeStore{identities: []models.Identity{
		{ID: uuid.New(), Name: "bob", Embedding: []float32{-1, 0}},
	}}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4, LogDenied: true})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.False(t, res.Access)
	assert.Equal(t, 0.0, res.MatchConfidence)

	require.Len(t, store.records, 1)
	assert.Equal(t, 0, store.records[0].MatchConfidence)
}

func TestVerify_LocalizerFaultNeverGrants(t *testing.T) {
	store := &fakeStore{identities: []models.Identity{
		{ID: uuid.New(), Name: "alice", Embedding: []float32{1, 0}},
	}}
	loc := &fakeLocator{err: errors.New("model load failed")}
	enc := &fakeEncoder{err: vision.ErrNoFace}
	svc := newTestService(store, loc, &fakeLiveness{}, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Verify(context.Background(), testImage(t))

	require.NoError(t, err)
	assert.False(t, res.Access)
	assert.Equal(t, DenyNoFace, res.Reason)
}

func TestVerify_StorageFaultPropagates(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4})

	_, err := svc.Verify(context.Background(), testImage(t))

	require.Error(t, err)
}

func TestEnroll_CreateThenReplace(t *testing.T) {
	store := &fakeStore{}
	enc := &fakeEncoder{embedding: []float32{1, 0}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, &fakeLiveness{verdict: liveVerdict()}, enc, Config{MatchThreshold: 0.4})

	res, err := svc.Enroll(context.Background(), "Alice", testImage(t))
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.False(t, res.Updated)
	require.Len(t, store.identities, 1)

	enc.embedding = []float32{0, 1}
	res, err = svc.Enroll(context.Background(), "Alice", testImage(t))
	require.NoError(t, err)
	assert.True(t, res.Updated)

	require.Len(t, store.identities, 1, "re-enrollment must not create a second row")
	assert.Equal(t, []float32{0, 1}, store.identities[0].Embedding)
}

func TestEnroll_RejectsSpoof(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLiveness{verdict: vision.Verdict{IsLive: false, Confidence: 0.8, SpoofScore: 0.8}}
	svc := newTestService(store, &fakeLocator{region: faceRegion()}, live, &fakeEncoder{}, Config{MatchThreshold: 0.4})

	_, err := svc.Enroll(context.Background(), "Mallory", testImage(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLivenessRejected)
	assert.Empty(t, store.identities)
}

func TestEnroll_EmptyName(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeLocator{}, &fakeLiveness{}, &fakeEncoder{}, Config{})

	_, err := svc.Enroll(context.Background(), "", testImage(t))

	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestEnroll_InvalidImage(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeLocator{}, &fakeLiveness{}, &fakeEncoder{}, Config{})

	_, err := svc.Enroll(context.Background(), "Alice", "@@@")

	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestEnroll_NoFace(t *testing.T) {
	enc := &fakeEncoder{err: vision.ErrNoFace}
	svc := newTestService(&fakeStore{}, &fakeLocator{}, &fakeLiveness{}, enc, Config{})

	_, err := svc.Enroll(context.Background(), "Alice", testImage(t))

	assert.ErrorIs(t, err, ErrNoFaceDetected)
}
