// Package render defines the animation-render collaborator consumed by the
// HTTP layer: request/result types, the tagged error taxonomy, quality
// presets, and an HTTP client speaking to the external renderer.
package render

import "context"

// Quality selects a render preset tier.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// DefaultQuality applies when a submission omits the quality field.
const DefaultQuality = QualityLow

// ValidQuality reports whether q names a known quality tier.
func ValidQuality(q Quality) bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// Options carries per-render options supplied by the caller.
type Options struct {
	Quality Quality
}

// Result references a finished render.
type Result struct {
	VideoPath string  `json:"videoPath"`
	Duration  float64 `json:"duration"`
}

// Availability is the renderer's status probe result. Version is empty when
// the renderer does not report one.
type Availability struct {
	Available bool
	Version   string
}

// Service is the render collaborator contract.
type Service interface {
	RenderAnimation(ctx context.Context, code string, opts Options) (*Result, error)
	CheckAvailability(ctx context.Context) (*Availability, error)
	Enabled() bool
}
