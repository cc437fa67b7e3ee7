package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
	"github.com/guardlink/guardlink-backend/internal/verification/ocr"
	"github.com/guardlink/guardlink-backend/internal/verification/risk"
	"github.com/guardlink/guardlink-backend/pkg/errors"
	"github.com/guardlink/guardlink-backend/pkg/logger"
)

type stubStore struct {
	created []*domain.VerificationResult
}

func (s *stubStore) Create(ctx context.Context, result *domain.VerificationResult) error {
	result.ID = "ver-1"
	s.created = append(s.created, result)
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*domain.VerificationResult, error) {
	return nil, errors.NotFound("verification result")
}

func (s *stubStore) ListPending(ctx context.Context, limit, offset int) ([]*domain.VerificationResult, error) {
	return nil, nil
}

func (s *stubStore) Stats(ctx context.Context) (*domain.VerificationStats, error) {
	return &domain.VerificationStats{}, nil
}

func (s *stubStore) Decide(ctx context.Context, id string, status domain.DecisionStatus, decidedBy, notes string) error {
	return nil
}

type stubPublisher struct {
	completed int
	flagged   int
}

func (p *stubPublisher) PublishCompleted(context.Context, *domain.VerificationResult) {
	p.completed++
}

func (p *stubPublisher) PublishFlagged(context.Context, *domain.VerificationResult, []string) {
	p.flagged++
}

func (p *stubPublisher) PublishApproved(context.Context, *domain.VerificationResult) {}
func (p *stubPublisher) PublishRejected(context.Context, *domain.VerificationResult) {}

type panicQuality struct{}

func (panicQuality) Name() string { return "quality" }
func (panicQuality) Analyze(*imaging.Bitmap) (domain.QualityReport, error) {
	panic("histogram overflow")
}

type panicMetadata struct{}

func (panicMetadata) Name() string { return "metadata" }
func (panicMetadata) Analyze(*imaging.Bitmap, string) (domain.MetadataReport, error) {
	panic("walker out of bounds")
}

// Analyzer panics degrade to the safe defaults, are recorded on the
// report, and the pipeline still verdicts, persists and publishes.
func TestVerify_AnalyzerPanicsDegrade(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 300, 200))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	log := logger.New("test", "test")
	store := &stubStore{}
	publisher := &stubPublisher{}

	svc := NewVerificationService(
		ocr.NewExtractor(ocr.NewStubEngine(), log),
		risk.NewAggregator(risk.DefaultPolicy()),
		store,
		publisher,
		log,
	)
	svc.quality = panicQuality{}
	svc.metadata = panicMetadata{}

	result, report, err := svc.Verify(context.Background(), VerifyRequest{
		Image:        buf.Bytes(),
		Filename:     "upload.png",
		DocumentType: domain.DocumentTypeIDCard,
		AgentID:      "agent-1",
		DocumentID:   "doc-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Degraded) != 2 {
		t.Fatalf("Degraded = %v, want quality and metadata entries", report.Degraded)
	}
	for _, name := range []string{"quality", "metadata"} {
		cause, ok := report.Degraded[name]
		if !ok {
			t.Errorf("Degraded missing %q: %v", name, report.Degraded)
			continue
		}
		if !strings.Contains(cause, "analyzer panic") {
			t.Errorf("Degraded[%q] = %q, want the panic cause", name, cause)
		}
	}

	// Defaults replace the failed analyzers
	if report.Quality.QualityScore != 0.3 {
		t.Errorf("Quality.QualityScore = %v, want degraded default 0.3", report.Quality.QualityScore)
	}
	if report.Quality.Width != 300 || report.Quality.Height != 200 {
		t.Errorf("degraded quality report lost dimensions: %+v", report.Quality)
	}
	if report.Metadata.RiskScore != 50 || report.Metadata.MetadataRisk != domain.RiskMedium {
		t.Errorf("Metadata = %+v, want degraded default MEDIUM/50", report.Metadata)
	}

	// The surviving analyzers still ran
	if !report.Template.FormatValid {
		t.Errorf("Template = %+v, want the real flat-image result", report.Template)
	}
	if report.Forensics.Tampered {
		t.Errorf("Forensics = %+v, want clean result from real detectors", report.Forensics)
	}

	// Degradation never blocks the verdict or the downstream effects
	if report.Verdict.Recommendation == "" {
		t.Error("no recommendation produced under degradation")
	}
	if result.ID != "ver-1" || len(store.created) != 1 {
		t.Errorf("result not persisted: %+v", result)
	}
	if publisher.completed != 1 {
		t.Errorf("completed events = %d, want 1", publisher.completed)
	}
}
