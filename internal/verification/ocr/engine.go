// Package ocr extracts a text transcript and structured identity fields
// from a document image. The recognition backend sits behind the Engine
// interface so it can be swapped (native Tesseract, a remote OCR API)
// without touching the field-parsing rules or the pipeline.
package ocr

import (
	"context"
	"image"
)

// Result is the raw recognition output of an Engine
type Result struct {
	// Text is the full transcript
	Text string
	// Confidence is the engine's mean confidence in [0,1]
	Confidence float64
	// Words and Lines are transcript counts as reported by the engine,
	// or derived from Text when the engine does not report them
	Words int
	Lines int
}

// Engine recognizes text in a preprocessed document image.
// Implementations must not retain the image after Recognize returns.
type Engine interface {
	// Recognize transcribes the image. A recognition failure is returned
	// as an error; the extractor converts it to an empty zero-confidence
	// report so the pipeline always completes.
	Recognize(ctx context.Context, img image.Image) (Result, error)

	// Name returns the engine name for logging/audit
	Name() string
}

// StubEngine is a placeholder recognition backend for deployments without
// a native OCR engine. It transcribes nothing, so every document scores
// as having no extractable text and is routed to manual review.
type StubEngine struct{}

// NewStubEngine creates the stub backend
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

func (e *StubEngine) Name() string { return "stub" }

func (e *StubEngine) Recognize(ctx context.Context, img image.Image) (Result, error) {
	return Result{}, nil
}
