package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Gabrielpanashe/Face-Access-System/internal/config"
)

// newUnloadableProvider returns a provider whose model directory does not
// exist, so every model load fails.
func newUnloadableProvider(t *testing.T) *Provider {
	t.Helper()
	return NewProvider(config.VisionConfig{
		ModelsDir:          t.TempDir() + "/missing",
		DetectionThreshold: 0.5,
	})
}

func TestDecideLiveness(t *testing.T) {
	tests := []struct {
		name      string
		p         float64
		threshold float64
		wantLive  bool
		wantConf  float64
	}{
		{"clearly real", 0.05, 0.2, true, 0.95},
		{"clearly spoof", 0.9, 0.2, false, 0.9},
		{"just below threshold", 0.19, 0.2, true, 0.81},
		{"exactly at threshold is spoof", 0.2, 0.2, false, 0.2},
		{"just above threshold", 0.21, 0.2, false, 0.21},
		{"zero probability", 0.0, 0.2, true, 1.0},
		{"certain spoof", 1.0, 0.2, false, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decideLiveness(tt.p, tt.threshold)
			assert.Equal(t, tt.wantLive, v.IsLive)
			assert.InDelta(t, tt.wantConf, v.Confidence, 1e-9)
			assert.InDelta(t, tt.p, v.SpoofScore, 1e-9)
		})
	}
}

func TestLivenessChecker_FailsSecureWhenModelUnavailable(t *testing.T) {
	checker := NewLivenessChecker(newUnloadableProvider(t), 0.2)

	v := checker.Assess(image.NewRGBA(image.Rect(0, 0, 224, 224)))

	assert.False(t, v.IsLive, "an unloadable model must never pass liveness")
	assert.Equal(t, 0.0, v.Confidence)
	assert.Equal(t, 1.0, v.SpoofScore)
}

func TestLivenessChecker_FailureIsSticky(t *testing.T) {
	checker := NewLivenessChecker(newUnloadableProvider(t), 0.2)
	face := image.NewRGBA(image.Rect(0, 0, 224, 224))

	first := checker.Assess(face)
	second := checker.Assess(face)

	assert.False(t, first.IsLive)
	assert.False(t, second.IsLive, "a cached load failure must keep denying")
}
