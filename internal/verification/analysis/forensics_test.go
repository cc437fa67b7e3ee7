package analysis_test

import (
	"strings"
	"testing"

	"github.com/guardlink/guardlink-backend/internal/verification/analysis"
)

func TestForensicsAnalyzer_CleanImage(t *testing.T) {
	bmp := pngBitmap(t, uniformImage(400, 400, 128))

	report, failures := analysis.NewForensicsAnalyzer().Analyze(bmp)
	if len(failures) != 0 {
		t.Fatalf("unexpected detector failures: %v", failures)
	}

	if report.Tampered {
		t.Error("Tampered = true for a uniform image")
	}
	if report.TamperedCount != 0 {
		t.Errorf("TamperedCount = %d, want 0", report.TamperedCount)
	}
	if report.TamperScore != 0 {
		t.Errorf("TamperScore = %v, want 0", report.TamperScore)
	}
	if report.CopyPaste.Tampered || report.Blur.Tampered || report.Sharpness.Tampered {
		t.Error("no spatial detector should fire on a uniform image")
	}
	if report.DoubleJPEG.Detail != "not a JPEG image" {
		t.Errorf("DoubleJPEG.Detail = %q, want recompression skip note", report.DoubleJPEG.Detail)
	}
}

func TestForensicsAnalyzer_TinyImage(t *testing.T) {
	bmp := pngBitmap(t, uniformImage(2, 2, 128))

	report, failures := analysis.NewForensicsAnalyzer().Analyze(bmp)
	if len(failures) != 0 {
		t.Fatalf("unexpected detector failures: %v", failures)
	}

	// Every detector declines rather than guessing
	if report.Tampered || report.TamperedCount != 0 {
		t.Errorf("tiny image flagged as tampered: %+v", report)
	}
	for name, detail := range map[string]string{
		"copy_paste": report.CopyPaste.Detail,
		"blur":       report.Blur.Detail,
		"sharpness":  report.Sharpness.Detail,
	} {
		if !strings.Contains(detail, "too small") {
			t.Errorf("%s detail = %q, want size note", name, detail)
		}
	}
}

func TestForensicsAnalyzer_JPEGRunsRecompression(t *testing.T) {
	bmp := jpegBitmap(t, uniformImage(400, 400, 128))

	report, failures := analysis.NewForensicsAnalyzer().Analyze(bmp)
	if len(failures) != 0 {
		t.Fatalf("unexpected detector failures: %v", failures)
	}

	if report.DoubleJPEG.Detail != "" {
		t.Errorf("DoubleJPEG.Detail = %q, want empty for a JPEG input", report.DoubleJPEG.Detail)
	}
}

func TestDefaultForensicsReport(t *testing.T) {
	report := analysis.DefaultForensicsReport()

	if report.Tampered || report.TamperScore != 0 || report.TamperedCount != 0 {
		t.Errorf("fallback report carries tamper signal: %+v", report)
	}
}
