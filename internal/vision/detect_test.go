package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInputEdge(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"default config value", 640, 640},
		{"rounded down to stride multiple", 650, 640},
		{"smaller edge kept", 320, 320},
		{"zero falls back", 0, 640},
		{"negative falls back", -64, 640},
		{"below one stride falls back", 16, 640},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeInputEdge(tt.in))
		})
	}
}

func TestDetectorOutputSpecs(t *testing.T) {
	t.Run("640 edge", func(t *testing.T) {
		specs := detectorOutputSpecs(640)

		require.Len(t, specs, 6)
		// (640/8)^2*2, (640/16)^2*2, (640/32)^2*2
		assert.Equal(t, int64(12800), specs[0].shape[0])
		assert.Equal(t, int64(3200), specs[1].shape[0])
		assert.Equal(t, int64(800), specs[2].shape[0])
		// Each bbox head pairs with the score head at the same stride.
		for i := 0; i < 3; i++ {
			assert.Equal(t, specs[i].shape[0], specs[i+3].shape[0])
			assert.Equal(t, int64(1), specs[i].shape[1])
			assert.Equal(t, int64(4), specs[i+3].shape[1])
		}
	})

	t.Run("320 edge", func(t *testing.T) {
		specs := detectorOutputSpecs(320)

		assert.Equal(t, int64(3200), specs[0].shape[0])
		assert.Equal(t, int64(800), specs[1].shape[0])
		assert.Equal(t, int64(200), specs[2].shape[0])
	})
}
