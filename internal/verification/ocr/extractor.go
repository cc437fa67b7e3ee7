package ocr

import (
	"context"
	"strings"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
	"github.com/guardlink/guardlink-backend/pkg/logger"
)

// Completeness is measured against the fields every supported document
// type is expected to carry.
var requiredFields = []string{
	domain.FieldName,
	domain.FieldIDNumber,
	domain.FieldDateOfBirth,
}

// Extractor runs the recognition backend over a preprocessed image and
// parses the transcript into structured fields.
type Extractor struct {
	engine Engine
	log    *logger.Logger
}

// NewExtractor creates an extractor around the given recognition backend
func NewExtractor(engine Engine, log *logger.Logger) *Extractor {
	return &Extractor{engine: engine, log: log}
}

// Extract transcribes the document and parses identity fields out of the
// transcript. Recognition failure is not fatal: the report comes back
// with zero confidence and no fields, and downstream risk scoring treats
// that as a strong manual-review signal.
func (e *Extractor) Extract(ctx context.Context, bmp *imaging.Bitmap, docType domain.DocumentType) domain.OCRReport {
	prepared := Preprocess(bmp.Img)

	result, err := e.engine.Recognize(ctx, prepared)
	if err != nil {
		e.log.Warn().
			Err(err).
			Str("engine", e.engine.Name()).
			Msg("text recognition failed, continuing with empty transcript")
		result = Result{}
	}

	fields := ParseFields(result.Text, docType)
	if mrz, ok := ParseMRZ(result.Text); ok {
		// Zone fields win over labeled-text matches
		for key, value := range mrz {
			fields[key] = value
		}
	}

	report := domain.OCRReport{
		Fields:     fields,
		Confidence: result.Confidence,
		RawText:    result.Text,
		WordCount:  result.Words,
		LineCount:  result.Lines,
	}

	if report.WordCount == 0 && result.Text != "" {
		report.WordCount = len(strings.Fields(result.Text))
	}
	if report.LineCount == 0 && result.Text != "" {
		report.LineCount = len(strings.Split(strings.TrimSpace(result.Text), "\n"))
	}

	report.Completeness = completeness(report.Fields)

	return report
}

// completeness is the fraction of required fields that were extracted
func completeness(fields domain.ExtractedFields) float64 {
	found := 0
	for _, name := range requiredFields {
		if v, ok := fields.Get(name); ok && v != "" {
			found++
		}
	}
	return float64(found) / float64(len(requiredFields))
}
