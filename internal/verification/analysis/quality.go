package analysis

import (
	"math"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
)

// Quality thresholds. These are policy values shared with the admin
// documentation; change them here, not inline.
const (
	MinResolutionWidth  = 600
	MinResolutionHeight = 400

	// Typical ID cards run around 1.5-1.8; the window allows margin.
	MinAspectRatio = 1.4
	MaxAspectRatio = 2.0

	MinBrightness = 30.0
	MaxBrightness = 225.0

	// Mean per-channel stddev is divided by this to get sharpness in [0,1]
	SharpnessNormalizer = 50.0

	// qualityScore weights
	weightResolution  = 0.3
	weightAspectRatio = 0.3
	weightBrightness  = 0.2
	weightSharpness   = 0.2
)

// QualityAnalyzer scores bitmap-level quality of the uploaded document
type QualityAnalyzer struct{}

// NewQualityAnalyzer creates a quality analyzer
func NewQualityAnalyzer() *QualityAnalyzer {
	return &QualityAnalyzer{}
}

// Name identifies the analyzer in logs and degradation records
func (a *QualityAnalyzer) Name() string { return "quality" }

// Analyze computes resolution, aspect ratio, brightness and sharpness
// checks from the raw bitmap and combines them into a quality score.
func (a *QualityAnalyzer) Analyze(bmp *imaging.Bitmap) (domain.QualityReport, error) {
	means, stddevs := imaging.ChannelStats(bmp.Img)

	brightness := (means[0] + means[1] + means[2]) / 3
	avgStdDev := (stddevs[0] + stddevs[1] + stddevs[2]) / 3
	sharpness := math.Min(avgStdDev/SharpnessNormalizer, 1)

	aspectRatio := bmp.AspectRatio()

	report := domain.QualityReport{
		Width:            bmp.Width,
		Height:           bmp.Height,
		Format:           bmp.Format,
		AspectRatio:      round2(aspectRatio),
		ResolutionValid:  bmp.Width >= MinResolutionWidth && bmp.Height >= MinResolutionHeight,
		AspectRatioValid: aspectRatio >= MinAspectRatio && aspectRatio <= MaxAspectRatio,
		Brightness:       math.Round(brightness),
		BrightnessValid:  brightness > MinBrightness && brightness < MaxBrightness,
		Sharpness:        round2(sharpness),
	}

	score := sharpness * weightSharpness
	if report.ResolutionValid {
		score += weightResolution
	}
	if report.AspectRatioValid {
		score += weightAspectRatio
	}
	if report.BrightnessValid {
		score += weightBrightness
	}
	report.QualityScore = round2(score)

	return report, nil
}

// DefaultQualityReport is the conservative fallback when the analyzer
// fails internally: a low but nonzero score so the verdict stays cautious
// without pretending the check ran.
func DefaultQualityReport(bmp *imaging.Bitmap) domain.QualityReport {
	return domain.QualityReport{
		Width:        bmp.Width,
		Height:       bmp.Height,
		Format:       bmp.Format,
		QualityScore: 0.3,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
