package risk_test

import (
	"math"
	"testing"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/risk"
)

// cleanInputs builds inputs that trigger no penalty at all
func cleanInputs() risk.Inputs {
	return risk.Inputs{
		OCR: domain.OCRReport{
			Confidence: 0.9,
			Fields: domain.ExtractedFields{
				domain.FieldName:        "John Smith",
				domain.FieldIDNumber:    "AB123456",
				domain.FieldDateOfBirth: "1990-03-15",
			},
		},
		Quality:  domain.QualityReport{QualityScore: 0.9},
		Template: domain.TemplateReport{FormatValid: true, TemplateScore: 0.8},
		Fields: domain.FieldValidationReport{
			IDNumber: &domain.IDNumberCheck{Value: "AB123456", Valid: true},
			DOB:      &domain.DateCheck{Value: "1990-03-15", Valid: true},
		},
		Metadata: domain.MetadataReport{HasCameraMetadata: true},
	}
}

func TestAggregate_CleanDocument(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	verdict := agg.Aggregate(cleanInputs())

	if verdict.RiskScore != 0 {
		t.Errorf("RiskScore = %d, want 0; penalties: %v", verdict.RiskScore, verdict.Penalties)
	}
	if verdict.RiskLevel != domain.RiskLow {
		t.Errorf("RiskLevel = %s, want LOW", verdict.RiskLevel)
	}
	if verdict.Recommendation != domain.RecommendApprove {
		t.Errorf("Recommendation = %s, want APPROVE", verdict.Recommendation)
	}
	if len(verdict.Penalties) != 0 {
		t.Errorf("Penalties = %v, want none", verdict.Penalties)
	}
}

func TestAggregate_BlankDocument(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	// Zero-value reports everywhere: no transcript, no fields, no
	// structure, no provenance. Penalties overflow the scale.
	verdict := agg.Aggregate(risk.Inputs{})

	if verdict.RiskScore != 100 {
		t.Errorf("RiskScore = %d, want clamped 100", verdict.RiskScore)
	}
	if verdict.RiskLevel != domain.RiskCritical {
		t.Errorf("RiskLevel = %s, want CRITICAL", verdict.RiskLevel)
	}
	if verdict.Recommendation != domain.RecommendReject {
		t.Errorf("Recommendation = %s, want REJECT", verdict.Recommendation)
	}
	if len(verdict.Penalties) == 0 {
		t.Error("Penalties is empty for a blank document")
	}
}

// scoreVerdict funnels an exact score through the aggregation by pricing
// the single no-camera penalty at the target value.
func scoreVerdict(t *testing.T, score int) domain.VerificationVerdict {
	t.Helper()
	policy := risk.DefaultPolicy()
	policy.PenaltyNoCameraMetadata = score

	in := cleanInputs()
	in.Metadata.HasCameraMetadata = false

	verdict := risk.NewAggregator(policy).Aggregate(in)
	if verdict.RiskScore != score {
		t.Fatalf("RiskScore = %d, want %d; penalties: %v", verdict.RiskScore, score, verdict.Penalties)
	}
	return verdict
}

func TestAggregate_LevelAndRecommendationBoundaries(t *testing.T) {
	tests := []struct {
		score     int
		level     domain.RiskLevel
		recommend domain.Recommendation
	}{
		{24, domain.RiskLow, domain.RecommendApprove},
		{25, domain.RiskMedium, domain.RecommendReview},
		{39, domain.RiskMedium, domain.RecommendReview},
		{40, domain.RiskHigh, domain.RecommendReview},
		{49, domain.RiskHigh, domain.RecommendReview},
		{50, domain.RiskHigh, domain.RecommendReject},
		{59, domain.RiskHigh, domain.RecommendReject},
		{60, domain.RiskCritical, domain.RecommendReject},
	}

	for _, tt := range tests {
		verdict := scoreVerdict(t, tt.score)
		if verdict.RiskLevel != tt.level {
			t.Errorf("score %d: RiskLevel = %s, want %s", tt.score, verdict.RiskLevel, tt.level)
		}
		if verdict.Recommendation != tt.recommend {
			t.Errorf("score %d: Recommendation = %s, want %s", tt.score, verdict.Recommendation, tt.recommend)
		}
	}
}

func TestAggregate_TamperOverridesLowScore(t *testing.T) {
	// Price tampering low so the additive score alone would approve;
	// the binary signal must still force a rejection.
	policy := risk.DefaultPolicy()
	policy.PenaltyTampered = 10

	in := cleanInputs()
	in.Forensics.Tampered = true

	verdict := risk.NewAggregator(policy).Aggregate(in)

	if verdict.RiskScore != 10 {
		t.Fatalf("RiskScore = %d, want 10; penalties: %v", verdict.RiskScore, verdict.Penalties)
	}
	if verdict.Recommendation != domain.RecommendReject {
		t.Errorf("Recommendation = %s, want REJECT despite low score", verdict.Recommendation)
	}
	if verdict.RiskLevel != domain.RiskHigh {
		t.Errorf("RiskLevel = %s, want raised to HIGH", verdict.RiskLevel)
	}
}

func TestAggregate_ScreenshotOverride(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	in := cleanInputs()
	in.Metadata.IsScreenshot = true

	verdict := agg.Aggregate(in)

	// 45 points alone lands in HIGH/REVIEW; the screenshot signal
	// pushes the recommendation to REJECT.
	if verdict.RiskScore != 45 {
		t.Errorf("RiskScore = %d, want 45; penalties: %v", verdict.RiskScore, verdict.Penalties)
	}
	if verdict.Recommendation != domain.RecommendReject {
		t.Errorf("Recommendation = %s, want REJECT", verdict.Recommendation)
	}
	if verdict.RiskLevel != domain.RiskHigh {
		t.Errorf("RiskLevel = %s, want HIGH", verdict.RiskLevel)
	}
}

func TestAggregate_EditingSoftwareRaisesLevel(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	in := cleanInputs()
	in.Metadata.HasEditingSoftware = true

	verdict := agg.Aggregate(in)

	if verdict.RiskScore != 35 {
		t.Errorf("RiskScore = %d, want 35; penalties: %v", verdict.RiskScore, verdict.Penalties)
	}
	if verdict.RiskLevel != domain.RiskHigh {
		t.Errorf("RiskLevel = %s, want raised from MEDIUM to HIGH", verdict.RiskLevel)
	}
	if verdict.Recommendation != domain.RecommendReject {
		t.Errorf("Recommendation = %s, want REJECT", verdict.Recommendation)
	}
}

func TestAggregate_TamperScoreBandsWithoutFlag(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	tests := []struct {
		name        string
		tamperScore float64
		wantScore   int
	}{
		{"below mid band", 0.4, 0},
		{"mid band", 0.5, 20},
		{"high band", 0.75, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cleanInputs()
			in.Forensics.TamperScore = tt.tamperScore

			verdict := agg.Aggregate(in)
			if verdict.RiskScore != tt.wantScore {
				t.Errorf("RiskScore = %d, want %d; penalties: %v", verdict.RiskScore, tt.wantScore, verdict.Penalties)
			}
			// Bands alone never force the rejection override
			if tt.wantScore < 50 && verdict.Recommendation == domain.RecommendReject {
				t.Errorf("Recommendation = REJECT for band-only score %d", verdict.RiskScore)
			}
		})
	}
}

func TestValidationScore(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	validFields := domain.FieldValidationReport{
		IDNumber: &domain.IDNumberCheck{Valid: true},
		DOB:      &domain.DateCheck{Valid: true},
	}

	t.Run("without expiry", func(t *testing.T) {
		got := agg.ValidationScore(
			domain.QualityReport{QualityScore: 0.6},
			domain.TemplateReport{TemplateScore: 0.6},
			validFields,
		)
		// (0.9 + 0.9 + 1 + 1) / 4
		if math.Abs(got-0.95) > 1e-9 {
			t.Errorf("ValidationScore = %v, want 0.95", got)
		}
	})

	t.Run("valid expiry joins the mean", func(t *testing.T) {
		fields := validFields
		fields.Expiry = &domain.ExpiryCheck{Valid: true}

		got := agg.ValidationScore(
			domain.QualityReport{QualityScore: 0.6},
			domain.TemplateReport{TemplateScore: 0.6},
			fields,
		)
		// (0.9 + 0.9 + 1 + 1 + 1) / 5
		if math.Abs(got-0.96) > 1e-9 {
			t.Errorf("ValidationScore = %v, want 0.96", got)
		}
	})

	t.Run("expired document scores zero on expiry", func(t *testing.T) {
		fields := validFields
		fields.Expiry = &domain.ExpiryCheck{Valid: true, Expired: true}

		got := agg.ValidationScore(
			domain.QualityReport{QualityScore: 0.6},
			domain.TemplateReport{TemplateScore: 0.6},
			fields,
		)
		// (0.9 + 0.9 + 1 + 1 + 0) / 5
		if math.Abs(got-0.76) > 1e-9 {
			t.Errorf("ValidationScore = %v, want 0.76", got)
		}
	})

	t.Run("clamped at one", func(t *testing.T) {
		got := agg.ValidationScore(
			domain.QualityReport{QualityScore: 1},
			domain.TemplateReport{TemplateScore: 0.8},
			validFields,
		)
		if got != 1 {
			t.Errorf("ValidationScore = %v, want clamped 1", got)
		}
	})

	t.Run("absent fields count as failures", func(t *testing.T) {
		got := agg.ValidationScore(
			domain.QualityReport{QualityScore: 0.5},
			domain.TemplateReport{TemplateScore: 0.5},
			domain.FieldValidationReport{},
		)
		// (0.75 + 0.75 + 0 + 0) / 4
		if math.Abs(got-0.375) > 1e-9 {
			t.Errorf("ValidationScore = %v, want 0.375", got)
		}
	})
}

func TestValidationPassed(t *testing.T) {
	agg := risk.NewAggregator(risk.DefaultPolicy())

	if !agg.ValidationPassed(0.7) {
		t.Error("ValidationPassed(0.7) = false, want true at the pass mark")
	}
	if agg.ValidationPassed(0.69) {
		t.Error("ValidationPassed(0.69) = true, want false below the pass mark")
	}
}
