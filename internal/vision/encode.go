package vision

import (
	"errors"
	"fmt"
	"image"
)

// ErrNoFace is returned when no face can be found to embed.
var ErrNoFace = errors.New("no face detected")

// Encoder turns a probe image into an identity embedding. When the caller
// already has a face region, embedding runs on it directly and detection is
// skipped. Without a region the encoder enforces detection itself and
// reports ErrNoFace when nothing encodable is found.
type Encoder struct {
	provider  *Provider
	localizer *Localizer
}

func NewEncoder(provider *Provider, localizer *Localizer) *Encoder {
	return &Encoder{provider: provider, localizer: localizer}
}

// Encode extracts an embedding from region if non-nil, otherwise from a face
// it locates in img.
func (e *Encoder) Encode(img image.Image, region *FaceRegion) ([]float32, error) {
	if region == nil {
		located, err := e.localizer.Locate(img)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoFace, err)
		}
		if located == nil {
			return nil, ErrNoFace
		}
		region = located
	}

	embedder, err := e.provider.Embedder()
	if err != nil {
		return nil, fmt.Errorf("embedder unavailable: %w", err)
	}

	embedding, err := embedder.Extract(region.Image)
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, ErrNoFace
	}
	return embedding, nil
}
