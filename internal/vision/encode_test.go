package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode_DetectorUnavailableIsNoFace(t *testing.T) {
	// Without a pre-located region the encoder enforces detection itself; a
	// failing detector must read as "no face", never as an embedding.
	provider := newUnloadableProvider(t)
	enc := NewEncoder(provider, NewLocalizer(provider, 0.2))

	embedding, err := enc.Encode(image.NewRGBA(image.Rect(0, 0, 64, 64)), nil)

	assert.ErrorIs(t, err, ErrNoFace)
	assert.Nil(t, embedding)
}

func TestEncode_EmbedderUnavailable(t *testing.T) {
	provider := newUnloadableProvider(t)
	enc := NewEncoder(provider, NewLocalizer(provider, 0.2))
	region := &FaceRegion{
		Image: image.NewRGBA(image.Rect(0, 0, 112, 112)),
		Rect:  image.Rect(0, 0, 112, 112),
	}

	_, err := enc.Encode(image.NewRGBA(image.Rect(0, 0, 64, 64)), region)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFace, "a model fault with a located face is not a no-face condition")
}
