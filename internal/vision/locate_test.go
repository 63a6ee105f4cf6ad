package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickLargest(t *testing.T) {
	small := Detection{BBox: [4]float32{0, 0, 10, 10}, Confidence: 0.99}
	large := Detection{BBox: [4]float32{20, 20, 60, 60}, Confidence: 0.6}

	t.Run("area wins over confidence", func(t *testing.T) {
		got := pickLargest([]Detection{small, large})
		assert.Equal(t, large, got)
	})

	t.Run("single detection", func(t *testing.T) {
		got := pickLargest([]Detection{small})
		assert.Equal(t, small, got)
	})

	t.Run("first wins ties", func(t *testing.T) {
		a := Detection{BBox: [4]float32{0, 0, 10, 10}, Confidence: 0.5}
		b := Detection{BBox: [4]float32{50, 50, 60, 60}, Confidence: 0.9}
		got := pickLargest([]Detection{a, b})
		assert.Equal(t, a, got)
	})
}

func TestPadRect(t *testing.T) {
	r := image.Rect(100, 100, 200, 150)

	t.Run("twenty percent", func(t *testing.T) {
		got := padRect(r, 0.2)
		assert.Equal(t, image.Rect(80, 90, 220, 160), got)
	})

	t.Run("zero padding", func(t *testing.T) {
		assert.Equal(t, r, padRect(r, 0))
	})
}

func TestBoxToRect(t *testing.T) {
	got := boxToRect([4]float32{10.7, 20.2, 30.9, 40.4})
	assert.Equal(t, image.Rect(10, 20, 30, 40), got)
}

func TestLocate_DetectorUnavailable(t *testing.T) {
	// A provider pointing at a nonexistent models directory cannot load the
	// detector; Locate must surface that as an error, never as a face.
	l := NewLocalizer(newUnloadableProvider(t), 0.2)

	region, err := l.Locate(image.NewRGBA(image.Rect(0, 0, 64, 64)))

	assert.Error(t, err)
	assert.Nil(t, region)
}
