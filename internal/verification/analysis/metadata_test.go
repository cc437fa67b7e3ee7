package analysis_test

import (
	"testing"

	"github.com/guardlink/guardlink-backend/internal/verification/analysis"
	"github.com/guardlink/guardlink-backend/internal/verification/domain"
)

func TestMetadataAnalyzer_NoExif(t *testing.T) {
	bmp := pngBitmap(t, uniformImage(100, 100, 128))

	report, err := analysis.NewMetadataAnalyzer().Analyze(bmp, "upload.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.HasCameraMetadata {
		t.Error("HasCameraMetadata = true for a PNG without EXIF")
	}
	if report.IsScreenshot {
		t.Error("IsScreenshot = true for a plain filename")
	}
	if report.HasEditingSoftware {
		t.Error("HasEditingSoftware = true without a software tag")
	}
	if report.ProvenanceScore != 0 {
		t.Errorf("ProvenanceScore = %v, want 0", report.ProvenanceScore)
	}
	// Missing camera metadata alone stays below the medium cutoff
	if report.RiskScore != 30 {
		t.Errorf("RiskScore = %d, want 30", report.RiskScore)
	}
	if report.MetadataRisk != domain.RiskLow {
		t.Errorf("MetadataRisk = %s, want LOW", report.MetadataRisk)
	}
}

func TestMetadataAnalyzer_ScreenshotFilename(t *testing.T) {
	bmp := pngBitmap(t, uniformImage(100, 100, 128))

	tests := []struct {
		filename   string
		screenshot bool
	}{
		{"Screenshot_2026-01-15.png", true},
		{"screen_capture_01.png", true},
		{"scr_0042.png", true},
		{"passport_front.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			report, err := analysis.NewMetadataAnalyzer().Analyze(bmp, tt.filename)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.IsScreenshot != tt.screenshot {
				t.Errorf("IsScreenshot = %v, want %v", report.IsScreenshot, tt.screenshot)
			}
		})
	}
}

func TestMetadataAnalyzer_ScreenshotRiskRollup(t *testing.T) {
	bmp := pngBitmap(t, uniformImage(100, 100, 128))

	report, err := analysis.NewMetadataAnalyzer().Analyze(bmp, "screenshot_2026.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Screenshot marker plus missing camera metadata
	if report.RiskScore != 80 {
		t.Errorf("RiskScore = %d, want 80", report.RiskScore)
	}
	if report.MetadataRisk != domain.RiskHigh {
		t.Errorf("MetadataRisk = %s, want HIGH", report.MetadataRisk)
	}
	if len(report.RiskFactors) == 0 {
		t.Error("RiskFactors is empty for a flagged screenshot")
	}
}

func TestDefaultMetadataReport(t *testing.T) {
	report := analysis.DefaultMetadataReport()

	if report.MetadataRisk != domain.RiskMedium {
		t.Errorf("MetadataRisk = %s, want MEDIUM", report.MetadataRisk)
	}
	if report.RiskScore != 50 {
		t.Errorf("RiskScore = %d, want 50", report.RiskScore)
	}
}
