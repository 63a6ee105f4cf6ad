package vision

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// livenessInputSize is the canonical face size the spoof network was trained on.
const livenessInputSize = 224

// Liveness scores a face crop for spoof probability. The network was exported
// from the training pipeline with a (1, 224, 224, 3) float32 input in [0,1]
// and a single sigmoid output: 0 = real, 1 = spoof.
type Liveness struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	inputName string
}

// NewLiveness loads the liveness ONNX model. Input and output names are read
// from the model itself since export tooling does not fix them.
func NewLiveness(modelPath string) (*Liveness, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect liveness model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected liveness model signature: %d inputs, %d outputs",
			len(inputs), len(outputs))
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create liveness session: %w", err)
	}

	return &Liveness{session: session, inputName: inputs[0].Name}, nil
}

// SpoofScore returns the model's spoof probability for a face crop.
func (l *Liveness) SpoofScore(face image.Image) (float32, error) {
	data := imageToFloat32NHWC(face, livenessInputSize, livenessInputSize)

	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, livenessInputSize, livenessInputSize, 3), data)
	if err != nil {
		return 0, fmt.Errorf("create liveness input: %w", err)
	}
	defer inputTensor.Destroy()

	l.mu.Lock()
	defer l.mu.Unlock()

	outputs := []ort.Value{nil}
	if err := l.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return 0, fmt.Errorf("run liveness: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok || len(out.GetData()) == 0 {
		return 0, fmt.Errorf("unexpected liveness output")
	}
	return out.GetData()[0], nil
}

func (l *Liveness) Close() {
	if l.session != nil {
		l.session.Destroy()
	}
}

// Verdict is a resolved liveness decision. Confidence applies to the decided
// label: 1-p for a live verdict, p for a spoof verdict.
type Verdict struct {
	IsLive     bool
	Confidence float64
	SpoofScore float64
}

// LivenessChecker applies the spoof-probability threshold and owns the
// fail-secure policy: if the model cannot be loaded or inference fails, the
// verdict is always (not live, confidence 0). It never defaults to live.
type LivenessChecker struct {
	provider  *Provider
	threshold float64
}

func NewLivenessChecker(provider *Provider, threshold float64) *LivenessChecker {
	return &LivenessChecker{provider: provider, threshold: threshold}
}

// Assess scores a cropped face region. It always resolves to a verdict;
// operational faults surface as a deny, not an error.
func (c *LivenessChecker) Assess(face image.Image) Verdict {
	model, err := c.provider.Liveness()
	if err != nil {
		slog.Warn("liveness model unavailable, failing secure", "error", err)
		return Verdict{IsLive: false, Confidence: 0, SpoofScore: 1}
	}

	p, err := model.SpoofScore(face)
	if err != nil {
		slog.Warn("liveness inference failed, failing secure", "error", err)
		return Verdict{IsLive: false, Confidence: 0, SpoofScore: 1}
	}

	return decideLiveness(float64(p), c.threshold)
}

// decideLiveness turns a spoof probability into a verdict. A face is live
// only when p is strictly below the threshold.
func decideLiveness(p, threshold float64) Verdict {
	if p < threshold {
		return Verdict{IsLive: true, Confidence: 1 - p, SpoofScore: p}
	}
	return Verdict{IsLive: false, Confidence: p, SpoofScore: p}
}
