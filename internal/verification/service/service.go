package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guardlink/guardlink-backend/internal/verification/analysis"
	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
	"github.com/guardlink/guardlink-backend/internal/verification/ocr"
	"github.com/guardlink/guardlink-backend/internal/verification/risk"
	"github.com/guardlink/guardlink-backend/internal/verification/validation"
	"github.com/guardlink/guardlink-backend/pkg/errors"
	"github.com/guardlink/guardlink-backend/pkg/logger"
)

// VerifyRequest carries one document verification job
type VerifyRequest struct {
	Image        []byte
	Filename     string
	DocumentType domain.DocumentType
	AgentID      string
	DocumentID   string
}

// ResultStore is the persistence surface the service depends on
type ResultStore interface {
	Create(ctx context.Context, result *domain.VerificationResult) error
	GetByID(ctx context.Context, id string) (*domain.VerificationResult, error)
	ListPending(ctx context.Context, limit, offset int) ([]*domain.VerificationResult, error)
	Stats(ctx context.Context) (*domain.VerificationStats, error)
	Decide(ctx context.Context, id string, status domain.DecisionStatus, decidedBy, notes string) error
}

// EventPublisher publishes verification lifecycle events
type EventPublisher interface {
	PublishCompleted(ctx context.Context, result *domain.VerificationResult)
	PublishFlagged(ctx context.Context, result *domain.VerificationResult, reasons []string)
	PublishApproved(ctx context.Context, result *domain.VerificationResult)
	PublishRejected(ctx context.Context, result *domain.VerificationResult)
}

// The analyzer surfaces the pipeline fans out over. Production wiring
// uses the analysis package; tests substitute failing analyzers to
// exercise the degradation paths.
type qualityAnalyzer interface {
	Name() string
	Analyze(bmp *imaging.Bitmap) (domain.QualityReport, error)
}

type templateAnalyzer interface {
	Name() string
	Analyze(bmp *imaging.Bitmap) (domain.TemplateReport, error)
}

type forensicsAnalyzer interface {
	Name() string
	Analyze(bmp *imaging.Bitmap) (domain.ForensicsReport, []error)
}

type metadataAnalyzer interface {
	Name() string
	Analyze(bmp *imaging.Bitmap, filename string) (domain.MetadataReport, error)
}

// VerificationService orchestrates the analysis pipeline: quality,
// template, forensics and metadata fan out concurrently alongside the
// OCR/field-validation chain; the risk aggregator joins all reports.
type VerificationService struct {
	quality   qualityAnalyzer
	template  templateAnalyzer
	forensics forensicsAnalyzer
	metadata  metadataAnalyzer
	extractor *ocr.Extractor
	fields    *validation.FieldValidator
	risk      *risk.Aggregator

	repo      ResultStore
	publisher EventPublisher
	logger    *logger.Logger
}

// NewVerificationService creates a verification service
func NewVerificationService(
	extractor *ocr.Extractor,
	aggregator *risk.Aggregator,
	repo ResultStore,
	publisher EventPublisher,
	log *logger.Logger,
) *VerificationService {
	return &VerificationService{
		quality:   analysis.NewQualityAnalyzer(),
		template:  analysis.NewTemplateValidator(),
		forensics: analysis.NewForensicsAnalyzer(),
		metadata:  analysis.NewMetadataAnalyzer(),
		extractor: extractor,
		fields:    validation.NewFieldValidator(),
		risk:      aggregator,
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// Verify runs the full pipeline over one document image, persists the
// result and publishes lifecycle events. An undecodable image is the
// only fatal error; every analyzer failure degrades to its conservative
// default and is recorded on the report.
func (s *VerificationService) Verify(ctx context.Context, req VerifyRequest) (*domain.VerificationResult, *domain.VerificationReport, error) {
	started := time.Now()

	bmp, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, nil, errors.UnreadableImage(err)
	}

	docType := req.DocumentType.Normalize()
	report := s.analyze(ctx, bmp, req.Filename, docType)
	report.ProcessingTimeMs = time.Since(started).Milliseconds()

	result, err := s.persist(ctx, req, report)
	if err != nil {
		return nil, nil, err
	}

	s.publisher.PublishCompleted(ctx, result)
	if result.Recommendation == domain.RecommendReject {
		s.publisher.PublishFlagged(ctx, result, report.Verdict.Penalties)
	}

	s.logger.WithVerification(result.ID).Info().
		Str("document_type", string(docType)).
		Int("risk_score", report.Verdict.RiskScore).
		Str("risk_level", string(report.Verdict.RiskLevel)).
		Str("recommendation", string(report.Verdict.Recommendation)).
		Int64("processing_time_ms", report.ProcessingTimeMs).
		Msg("verification completed")

	return result, report, nil
}

// analyze runs the analyzers and joins their reports into the verdict
func (s *VerificationService) analyze(ctx context.Context, bmp *imaging.Bitmap, filename string, docType domain.DocumentType) *domain.VerificationReport {
	report := &domain.VerificationReport{
		DocumentType: docType,
		Degraded:     map[string]string{},
	}

	// Analyzer goroutines write disjoint report fields; only the
	// degradation map is shared.
	var mu sync.Mutex
	degrade := func(name string, err error) {
		s.logger.WithAnalyzer(name).Warn().Err(err).Msg("analyzer degraded to default report")
		mu.Lock()
		report.Degraded[name] = err.Error()
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report.Quality = s.runQuality(bmp, degrade)
		return nil
	})
	g.Go(func() error {
		report.Template = s.runTemplate(bmp, degrade)
		return nil
	})
	g.Go(func() error {
		report.Forensics = s.runForensics(bmp, degrade)
		return nil
	})
	g.Go(func() error {
		report.Metadata = s.runMetadata(bmp, filename, degrade)
		return nil
	})
	g.Go(func() error {
		// Extraction feeds field validation, so these two stay sequential
		report.OCR = s.extractor.Extract(gctx, bmp, docType)
		report.Fields = s.fields.Validate(report.OCR.Fields, docType)
		return nil
	})

	// The goroutines only ever return nil; the group is the join barrier
	_ = g.Wait()

	if len(report.Degraded) == 0 {
		report.Degraded = nil
	}

	report.ValidationScore = s.risk.ValidationScore(report.Quality, report.Template, report.Fields)
	report.ValidationPassed = s.risk.ValidationPassed(report.ValidationScore)
	report.Verdict = s.risk.Aggregate(risk.Inputs{
		OCR:       report.OCR,
		Quality:   report.Quality,
		Template:  report.Template,
		Fields:    report.Fields,
		Forensics: report.Forensics,
		Metadata:  report.Metadata,
	})

	return report
}

func (s *VerificationService) runQuality(bmp *imaging.Bitmap, degrade func(string, error)) domain.QualityReport {
	q, err := runAnalyzer(func() (domain.QualityReport, error) { return s.quality.Analyze(bmp) })
	if err != nil {
		degrade(s.quality.Name(), err)
		return analysis.DefaultQualityReport(bmp)
	}
	return q
}

func (s *VerificationService) runTemplate(bmp *imaging.Bitmap, degrade func(string, error)) domain.TemplateReport {
	t, err := runAnalyzer(func() (domain.TemplateReport, error) { return s.template.Analyze(bmp) })
	if err != nil {
		degrade(s.template.Name(), err)
		return analysis.DefaultTemplateReport()
	}
	return t
}

func (s *VerificationService) runForensics(bmp *imaging.Bitmap, degrade func(string, error)) domain.ForensicsReport {
	f, err := runAnalyzer(func() (domain.ForensicsReport, error) {
		r, failures := s.forensics.Analyze(bmp)
		for _, ferr := range failures {
			s.logger.Warn().Err(ferr).Msg("forensic detector degraded")
		}
		return r, nil
	})
	if err != nil {
		degrade(s.forensics.Name(), err)
		return analysis.DefaultForensicsReport()
	}
	return f
}

func (s *VerificationService) runMetadata(bmp *imaging.Bitmap, filename string, degrade func(string, error)) domain.MetadataReport {
	m, err := runAnalyzer(func() (domain.MetadataReport, error) { return s.metadata.Analyze(bmp, filename) })
	if err != nil {
		degrade(s.metadata.Name(), err)
		return analysis.DefaultMetadataReport()
	}
	return m
}

// runAnalyzer isolates one analyzer so a panic degrades that analyzer
// instead of failing the verification
func runAnalyzer[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return fn()
}

func (s *VerificationService) persist(ctx context.Context, req VerifyRequest, report *domain.VerificationReport) (*domain.VerificationResult, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, errors.Internal("failed to serialize verification report")
	}

	result := &domain.VerificationResult{
		AgentID:        req.AgentID,
		DocumentID:     req.DocumentID,
		DocumentType:   report.DocumentType,
		RiskScore:      report.Verdict.RiskScore,
		RiskLevel:      report.Verdict.RiskLevel,
		Recommendation: report.Verdict.Recommendation,
		Report:         raw,
	}

	if err := s.repo.Create(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetResult returns a stored verification result
func (s *VerificationService) GetResult(ctx context.Context, id string) (*domain.VerificationResult, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPending lists results awaiting an admin decision
func (s *VerificationService) ListPending(ctx context.Context, limit, offset int) ([]*domain.VerificationResult, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

// Stats returns aggregate counts for the dashboard
func (s *VerificationService) Stats(ctx context.Context) (*domain.VerificationStats, error) {
	return s.repo.Stats(ctx)
}

// Approve records an admin approval and publishes the decision event
func (s *VerificationService) Approve(ctx context.Context, id, decidedBy, notes string) (*domain.VerificationResult, error) {
	return s.decide(ctx, id, domain.DecisionApproved, decidedBy, notes)
}

// Reject records an admin rejection and publishes the decision event
func (s *VerificationService) Reject(ctx context.Context, id, decidedBy, notes string) (*domain.VerificationResult, error) {
	return s.decide(ctx, id, domain.DecisionRejected, decidedBy, notes)
}

func (s *VerificationService) decide(ctx context.Context, id string, status domain.DecisionStatus, decidedBy, notes string) (*domain.VerificationResult, error) {
	if err := s.repo.Decide(ctx, id, status, decidedBy, notes); err != nil {
		return nil, err
	}

	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.DecisionApproved:
		s.publisher.PublishApproved(ctx, result)
	case domain.DecisionRejected:
		s.publisher.PublishRejected(ctx, result)
	}

	return result, nil
}
