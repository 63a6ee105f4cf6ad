package vision

import (
	"fmt"
	"image"
)

// Localizer finds the most prominent face in an image. Detection runs on a
// bounded-size raster for latency; the returned crop is always taken from
// the original full-resolution image.
type Localizer struct {
	provider *Provider
	padding  float64
}

func NewLocalizer(provider *Provider, padding float64) *Localizer {
	return &Localizer{provider: provider, padding: padding}
}

// Locate returns the largest detected face, expanded by the configured
// padding and clamped to image bounds, or (nil, nil) when no face is found.
func (l *Localizer) Locate(img image.Image) (*FaceRegion, error) {
	detector, err := l.provider.Detector()
	if err != nil {
		return nil, fmt.Errorf("detector unavailable: %w", err)
	}

	bounds := img.Bounds()
	detInput := imageToFloat32CHW(img, detector.inputW, detector.inputH,
		[3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})

	detections, err := detector.Detect(detInput, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, nil
	}

	best := pickLargest(detections)
	rect := padRect(boxToRect(best.BBox), l.padding).
		Add(bounds.Min).
		Intersect(bounds)

	crop := cropImage(img, rect)
	if crop == nil {
		return nil, nil
	}

	return &FaceRegion{
		Image:      crop,
		Rect:       rect,
		Confidence: best.Confidence,
	}, nil
}

// pickLargest selects the detection with maximum bounding-box area.
// The first detection achieving the maximum wins ties.
func pickLargest(detections []Detection) Detection {
	best := detections[0]
	bestArea := boxArea(best.BBox)
	for _, d := range detections[1:] {
		if a := boxArea(d.BBox); a > bestArea {
			best = d
			bestArea = a
		}
	}
	return best
}

func boxArea(b [4]float32) float32 {
	return (b[2] - b[0]) * (b[3] - b[1])
}

func boxToRect(b [4]float32) image.Rectangle {
	return image.Rect(int(b[0]), int(b[1]), int(b[2]), int(b[3]))
}

// padRect expands the rectangle by pad*width / pad*height on each side.
func padRect(r image.Rectangle, pad float64) image.Rectangle {
	padW := int(float64(r.Dx()) * pad)
	padH := int(float64(r.Dy()) * pad)
	return image.Rect(r.Min.X-padW, r.Min.Y-padH, r.Max.X+padW, r.Max.Y+padH)
}
