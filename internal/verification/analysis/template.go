package analysis

import (
	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
)

// Edge-density window for a structured document layout. Genuine ID cards
// have clear borders and text blocks; near-blank or extremely busy images
// fall outside the window.
const (
	MinEdgeDensity = 0.1
	MaxEdgeDensity = 0.5

	templateScoreStructured   = 0.8
	templateScoreUnstructured = 0.5
	templateScoreDegraded     = 0.3
)

// TemplateValidator estimates structural plausibility of the document
// layout from the density of its edge map.
type TemplateValidator struct{}

// NewTemplateValidator creates a template validator
func NewTemplateValidator() *TemplateValidator {
	return &TemplateValidator{}
}

// Name identifies the analyzer in logs and degradation records
func (v *TemplateValidator) Name() string { return "template" }

// Analyze converts the bitmap to grayscale, applies the edge kernel and
// scores the normalized mean edge intensity.
func (v *TemplateValidator) Analyze(bmp *imaging.Bitmap) (domain.TemplateReport, error) {
	gray := imaging.ToGray(bmp.Img)
	edges := imaging.Laplacian(gray, true)
	edgeDensity := edges.Mean() / 255

	score := templateScoreUnstructured
	if edgeDensity > MinEdgeDensity && edgeDensity < MaxEdgeDensity {
		score = templateScoreStructured
	}

	return domain.TemplateReport{
		FormatValid:   true,
		TemplateScore: score,
		EdgeDensity:   round2(edgeDensity),
		HasStructure:  edgeDensity > MinEdgeDensity,
	}, nil
}

// DefaultTemplateReport is the degraded fallback: format unconfirmed,
// low-but-nonzero score, per the fail-soft contract.
func DefaultTemplateReport() domain.TemplateReport {
	return domain.TemplateReport{
		FormatValid:   false,
		TemplateScore: templateScoreDegraded,
	}
}
