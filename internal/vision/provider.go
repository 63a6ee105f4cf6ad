package vision

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/Gabrielpanashe/Face-Access-System/internal/config"
)

// Model file names under the configured models directory.
const (
	detectorModelFile = "det_10g.onnx"
	embedderModelFile = "w600k_r50.onnx"
	livenessModelFile = "liveness.onnx"
)

// Provider owns the process-wide model handles. Each model is loaded lazily
// on first use; the load is guarded so concurrent first callers trigger at
// most one load and then share the same read-only handle. A failed load is
// cached and reported to every caller rather than retried.
type Provider struct {
	cfg config.VisionConfig

	detectorOnce sync.Once
	detector     *Detector
	detectorErr  error

	embedderOnce sync.Once
	embedder     *Embedder
	embedderErr  error

	livenessOnce sync.Once
	liveness     *Liveness
	livenessErr  error
}

func NewProvider(cfg config.VisionConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Detector() (*Detector, error) {
	p.detectorOnce.Do(func() {
		path := filepath.Join(p.cfg.ModelsDir, detectorModelFile)
		slog.Info("loading detection model", "path", path)
		p.detector, p.detectorErr = NewDetector(path, float32(p.cfg.DetectionThreshold), p.cfg.DetectMaxEdge)
	})
	return p.detector, p.detectorErr
}

func (p *Provider) Embedder() (*Embedder, error) {
	p.embedderOnce.Do(func() {
		path := filepath.Join(p.cfg.ModelsDir, embedderModelFile)
		slog.Info("loading embedding model", "path", path)
		p.embedder, p.embedderErr = NewEmbedder(path)
	})
	return p.embedder, p.embedderErr
}

func (p *Provider) Liveness() (*Liveness, error) {
	p.livenessOnce.Do(func() {
		path := filepath.Join(p.cfg.ModelsDir, livenessModelFile)
		slog.Info("loading liveness model", "path", path)
		p.liveness, p.livenessErr = NewLiveness(path)
	})
	return p.liveness, p.livenessErr
}

// Close releases every session that was actually loaded.
func (p *Provider) Close() {
	if p.detector != nil {
		p.detector.Close()
	}
	if p.embedder != nil {
		p.embedder.Close()
	}
	if p.liveness != nil {
		p.liveness.Close()
	}
}

// ONNXLibPath returns the ONNX Runtime shared library name for this platform.
func ONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "libonnxruntime.so"
	}
}
