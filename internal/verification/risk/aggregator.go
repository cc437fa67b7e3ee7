// Package risk turns the per-analyzer reports into a single numeric risk
// score, a risk level and a recommendation. The aggregation is a pure
// function of the sub-reports; every threshold and weight lives in the
// Policy so the formula stays auditable and testable in isolation.
package risk

import (
	"fmt"
	"math"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
)

// Policy holds the additive weights and cutoffs of the aggregation
type Policy struct {
	// OCR confidence penalties, applied at the first matching cutoff
	OCRConfidenceLow  float64 `mapstructure:"ocr_confidence_low"`
	OCRConfidenceMid  float64 `mapstructure:"ocr_confidence_mid"`
	OCRConfidenceHigh float64 `mapstructure:"ocr_confidence_high"`
	PenaltyOCRLow     int     `mapstructure:"penalty_ocr_low"`
	PenaltyOCRMid     int     `mapstructure:"penalty_ocr_mid"`
	PenaltyOCRHigh    int     `mapstructure:"penalty_ocr_high"`

	// Missing-field penalties
	PenaltyMissingName int `mapstructure:"penalty_missing_name"`
	PenaltyMissingID   int `mapstructure:"penalty_missing_id"`
	PenaltyMissingDOB  int `mapstructure:"penalty_missing_dob"`
	MinNameLength      int `mapstructure:"min_name_length"`
	MinIDLength        int `mapstructure:"min_id_length"`

	// Validation-score penalties
	ValidationLowCutoff   float64 `mapstructure:"validation_low_cutoff"`
	ValidationMidCutoff   float64 `mapstructure:"validation_mid_cutoff"`
	ValidationHighCutoff  float64 `mapstructure:"validation_high_cutoff"`
	PenaltyValidationLow  int     `mapstructure:"penalty_validation_low"`
	PenaltyValidationMid  int     `mapstructure:"penalty_validation_mid"`
	PenaltyValidationHigh int     `mapstructure:"penalty_validation_high"`
	ValidationPassScore   float64 `mapstructure:"validation_pass_score"`

	// Image signals
	QualityCutoff          float64 `mapstructure:"quality_cutoff"`
	PenaltyPoorQuality     int     `mapstructure:"penalty_poor_quality"`
	PenaltyInvalidTemplate int     `mapstructure:"penalty_invalid_template"`

	// Forensics signals. Tamper-score penalties use the score scaled to
	// [0,100] against the cutoffs.
	PenaltyTampered       int `mapstructure:"penalty_tampered"`
	TamperScoreHighCutoff int `mapstructure:"tamper_score_high_cutoff"`
	TamperScoreMidCutoff  int `mapstructure:"tamper_score_mid_cutoff"`
	PenaltyTamperHigh     int `mapstructure:"penalty_tamper_high"`
	PenaltyTamperMid      int `mapstructure:"penalty_tamper_mid"`

	// Metadata signals
	PenaltyEditingSoftware  int `mapstructure:"penalty_editing_software"`
	PenaltyScreenshot       int `mapstructure:"penalty_screenshot"`
	PenaltyNoCameraMetadata int `mapstructure:"penalty_no_camera_metadata"`

	// Level and recommendation boundaries
	LevelCritical   int `mapstructure:"level_critical"`
	LevelHigh       int `mapstructure:"level_high"`
	LevelMedium     int `mapstructure:"level_medium"`
	RejectThreshold int `mapstructure:"reject_threshold"`
	ReviewThreshold int `mapstructure:"review_threshold"`
}

// DefaultPolicy returns the production aggregation policy
func DefaultPolicy() Policy {
	return Policy{
		OCRConfidenceLow:  0.5,
		OCRConfidenceMid:  0.7,
		OCRConfidenceHigh: 0.85,
		PenaltyOCRLow:     40,
		PenaltyOCRMid:     25,
		PenaltyOCRHigh:    10,

		PenaltyMissingName: 30,
		PenaltyMissingID:   30,
		PenaltyMissingDOB:  20,
		MinNameLength:      3,
		MinIDLength:        5,

		ValidationLowCutoff:   0.4,
		ValidationMidCutoff:   0.6,
		ValidationHighCutoff:  0.8,
		PenaltyValidationLow:  35,
		PenaltyValidationMid:  20,
		PenaltyValidationHigh: 10,
		ValidationPassScore:   0.7,

		QualityCutoff:          0.5,
		PenaltyPoorQuality:     25,
		PenaltyInvalidTemplate: 30,

		PenaltyTampered:       50,
		TamperScoreHighCutoff: 60,
		TamperScoreMidCutoff:  40,
		PenaltyTamperHigh:     40,
		PenaltyTamperMid:      20,

		PenaltyEditingSoftware:  35,
		PenaltyScreenshot:       45,
		PenaltyNoCameraMetadata: 15,

		LevelCritical:   60,
		LevelHigh:       40,
		LevelMedium:     25,
		RejectThreshold: 50,
		ReviewThreshold: 25,
	}
}

// Aggregator computes the verdict from the sub-reports
type Aggregator struct {
	policy Policy
}

// NewAggregator creates an aggregator with the given policy
func NewAggregator(policy Policy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Inputs carries every upstream report the aggregation depends on
type Inputs struct {
	OCR       domain.OCRReport
	Quality   domain.QualityReport
	Template  domain.TemplateReport
	Fields    domain.FieldValidationReport
	Forensics domain.ForensicsReport
	Metadata  domain.MetadataReport
}

// Aggregate computes the additive risk score, clamps it to [0,100] and
// derives level and recommendation. Binary disqualifying signals
// (tampering, screenshot, editing software) override the numeric
// recommendation to REJECT and raise the level to at least HIGH.
func (a *Aggregator) Aggregate(in Inputs) domain.VerificationVerdict {
	p := a.policy
	score := 0
	var penalties []string

	add := func(points int, reason string) {
		score += points
		penalties = append(penalties, fmt.Sprintf("%s (+%d)", reason, points))
	}

	switch {
	case in.OCR.Confidence < p.OCRConfidenceLow:
		add(p.PenaltyOCRLow, "very low text recognition confidence")
	case in.OCR.Confidence < p.OCRConfidenceMid:
		add(p.PenaltyOCRMid, "low text recognition confidence")
	case in.OCR.Confidence < p.OCRConfidenceHigh:
		add(p.PenaltyOCRHigh, "moderate text recognition confidence")
	}

	if name, ok := in.OCR.Fields.Get(domain.FieldName); !ok || len(name) < p.MinNameLength {
		add(p.PenaltyMissingName, "name missing or too short")
	}
	if id, ok := in.OCR.Fields.Get(domain.FieldIDNumber); !ok || len(id) < p.MinIDLength {
		add(p.PenaltyMissingID, "ID number missing or too short")
	}
	if _, ok := in.OCR.Fields.Get(domain.FieldDateOfBirth); !ok {
		add(p.PenaltyMissingDOB, "date of birth missing")
	}

	validationScore := a.ValidationScore(in.Quality, in.Template, in.Fields)
	switch {
	case validationScore < p.ValidationLowCutoff:
		add(p.PenaltyValidationLow, "very low validation score")
	case validationScore < p.ValidationMidCutoff:
		add(p.PenaltyValidationMid, "low validation score")
	case validationScore < p.ValidationHighCutoff:
		add(p.PenaltyValidationHigh, "moderate validation score")
	}

	if in.Quality.QualityScore < p.QualityCutoff {
		add(p.PenaltyPoorQuality, "poor image quality")
	}
	if !in.Template.FormatValid {
		add(p.PenaltyInvalidTemplate, "document structure does not match expected template")
	}

	if in.Forensics.Tampered {
		add(p.PenaltyTampered, "image tampering detected")
	}
	tamper := int(in.Forensics.TamperScore * 100)
	switch {
	case tamper > p.TamperScoreHighCutoff:
		add(p.PenaltyTamperHigh, "high tamper score")
	case tamper > p.TamperScoreMidCutoff:
		add(p.PenaltyTamperMid, "elevated tamper score")
	}

	if in.Metadata.HasEditingSoftware {
		add(p.PenaltyEditingSoftware, "editing software detected in metadata")
	}
	if in.Metadata.IsScreenshot {
		add(p.PenaltyScreenshot, "image appears to be a screenshot")
	}
	if !in.Metadata.HasCameraMetadata {
		add(p.PenaltyNoCameraMetadata, "no camera metadata")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	verdict := domain.VerificationVerdict{
		RiskScore:      score,
		RiskLevel:      a.level(score),
		Recommendation: a.recommend(score),
		Penalties:      penalties,
	}

	// Disqualifying binary signals override the additive outcome
	if in.Forensics.Tampered || in.Metadata.IsScreenshot || in.Metadata.HasEditingSoftware {
		verdict.Recommendation = domain.RecommendReject
		if verdict.RiskLevel == domain.RiskLow || verdict.RiskLevel == domain.RiskMedium {
			verdict.RiskLevel = domain.RiskHigh
		}
	}

	return verdict
}

// ValidationScore combines quality, template and field checks into one
// [0,1] score. Quality and template are weighted 1.5x; absent ID or DOB
// count as failures; expiry only participates when the document carries
// an expiry date.
func (a *Aggregator) ValidationScore(quality domain.QualityReport, template domain.TemplateReport, fields domain.FieldValidationReport) float64 {
	scores := []float64{
		quality.QualityScore * 1.5,
		template.TemplateScore * 1.5,
		boolScore(fields.IDNumber != nil && fields.IDNumber.Valid),
		boolScore(fields.DOB != nil && fields.DOB.Valid),
	}
	if fields.Expiry != nil {
		scores = append(scores, boolScore(fields.Expiry.Valid && !fields.Expiry.Expired))
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Min(sum/float64(len(scores)), 1)
}

// ValidationPassed applies the policy pass mark to a validation score
func (a *Aggregator) ValidationPassed(score float64) bool {
	return score >= a.policy.ValidationPassScore
}

func (a *Aggregator) level(score int) domain.RiskLevel {
	p := a.policy
	switch {
	case score >= p.LevelCritical:
		return domain.RiskCritical
	case score >= p.LevelHigh:
		return domain.RiskHigh
	case score >= p.LevelMedium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func (a *Aggregator) recommend(score int) domain.Recommendation {
	p := a.policy
	switch {
	case score >= p.RejectThreshold:
		return domain.RecommendReject
	case score >= p.ReviewThreshold:
		return domain.RecommendReview
	default:
		return domain.RecommendApprove
	}
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
