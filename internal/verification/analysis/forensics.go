package analysis

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
)

// Forensic detector thresholds. Each detector grid-partitions the
// grayscale image and compares a per-cell statistic; an inconsistent
// statistic across cells is the tampering signal.
const (
	copyPasteGridSize      = 4
	copyPasteMinCellPixels = 10
	// stdev of per-cell variances is divided by this before clamping to [0,1]
	copyPasteNormalizer = 1000.0
	copyPasteThreshold  = 0.3

	blurGridSize  = 3
	blurThreshold = 0.5

	sharpnessGridSize  = 3
	sharpnessThreshold = 0.4

	// Recompression at this quality should change a once-compressed JPEG
	// noticeably; a tiny delta points at double compression.
	recompressQuality   = 95
	doubleJPEGThreshold = 0.05
)

// ForensicsAnalyzer runs the four tamper detectors and rolls their
// verdicts into a tamper score. Any detector failing internally degrades
// to a not-tampered zero-signal indicator; the others still count.
// Detectors are held as fields so tests can substitute failing ones.
type ForensicsAnalyzer struct {
	copyPaste  func(gray *imaging.Gray) (domain.TamperIndicator, error)
	blur       func(gray *imaging.Gray) (domain.TamperIndicator, error)
	sharpness  func(gray *imaging.Gray) (domain.TamperIndicator, error)
	doubleJPEG func(bmp *imaging.Bitmap) (domain.TamperIndicator, error)
}

// NewForensicsAnalyzer creates a forensics analyzer
func NewForensicsAnalyzer() *ForensicsAnalyzer {
	return &ForensicsAnalyzer{
		copyPaste:  detectCopyPaste,
		blur:       detectBlurInconsistency,
		sharpness:  detectSharpnessMismatch,
		doubleJPEG: detectDoubleJPEG,
	}
}

// Name identifies the analyzer in logs and degradation records
func (a *ForensicsAnalyzer) Name() string { return "forensics" }

// Analyze runs all detectors against the bitmap. The returned error slice
// carries per-detector failures for the degradation record; the report is
// always usable.
func (a *ForensicsAnalyzer) Analyze(bmp *imaging.Bitmap) (domain.ForensicsReport, []error) {
	gray := imaging.ToGray(bmp.Img)

	var failures []error
	run := func(name string, det func() (domain.TamperIndicator, error)) domain.TamperIndicator {
		ind, err := runDetector(det)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			return domain.TamperIndicator{}
		}
		return ind
	}

	report := domain.ForensicsReport{
		CopyPaste:  run("copy_paste", func() (domain.TamperIndicator, error) { return a.copyPaste(gray) }),
		Blur:       run("blur", func() (domain.TamperIndicator, error) { return a.blur(gray) }),
		Sharpness:  run("sharpness_mismatch", func() (domain.TamperIndicator, error) { return a.sharpness(gray) }),
		DoubleJPEG: run("double_jpeg", func() (domain.TamperIndicator, error) { return a.doubleJPEG(bmp) }),
	}

	for _, ind := range []domain.TamperIndicator{report.CopyPaste, report.Blur, report.Sharpness, report.DoubleJPEG} {
		if ind.Tampered {
			report.TamperedCount++
		}
	}

	report.Tampered = report.TamperedCount >= 2
	report.TamperScore = round2(float64(report.TamperedCount) / 4)

	return report, failures
}

// DefaultForensicsReport is the degraded fallback: not tampered, zero
// signal everywhere.
func DefaultForensicsReport() domain.ForensicsReport {
	return domain.ForensicsReport{}
}

// runDetector isolates a detector so a panic inside one cannot take the
// rest of the verification down.
func runDetector(det func() (domain.TamperIndicator, error)) (ind domain.TamperIndicator, err error) {
	defer func() {
		if r := recover(); r != nil {
			ind = domain.TamperIndicator{}
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return det()
}

// detectCopyPaste looks for inconsistent sensor noise: a pasted region
// carries the noise of its source, so the spread of per-cell pixel
// variances over a 4x4 grid rises.
func detectCopyPaste(gray *imaging.Gray) (domain.TamperIndicator, error) {
	cellW := gray.W / copyPasteGridSize
	cellH := gray.H / copyPasteGridSize
	if cellW < copyPasteMinCellPixels || cellH < copyPasteMinCellPixels {
		// Too small to partition meaningfully
		return domain.TamperIndicator{Detail: "image too small for noise analysis"}, nil
	}

	var variances []float64
	for gx := 0; gx < copyPasteGridSize; gx++ {
		for gy := 0; gy < copyPasteGridSize; gy++ {
			cell := gray.Cell(gx, gy, copyPasteGridSize, copyPasteGridSize)
			if cell == nil {
				continue
			}
			variances = append(variances, cell.Variance())
		}
	}
	if len(variances) == 0 {
		return domain.TamperIndicator{}, nil
	}

	inconsistency := math.Min(imaging.StdDev(variances)/copyPasteNormalizer, 1)

	return domain.TamperIndicator{
		Tampered: inconsistency > copyPasteThreshold,
		Score:    round2(inconsistency),
	}, nil
}

// detectBlurInconsistency compares local blur across a 3x3 grid via the
// Laplacian-variance metric; selective blurring leaves the coefficient of
// variation high.
func detectBlurInconsistency(gray *imaging.Gray) (domain.TamperIndicator, error) {
	if gray.W/blurGridSize < 1 || gray.H/blurGridSize < 1 {
		return domain.TamperIndicator{Detail: "image too small for blur analysis"}, nil
	}

	var scores []float64
	for gx := 0; gx < blurGridSize; gx++ {
		for gy := 0; gy < blurGridSize; gy++ {
			cell := gray.Cell(gx, gy, blurGridSize, blurGridSize)
			if cell == nil {
				continue
			}
			scores = append(scores, imaging.LaplacianVariance(cell))
		}
	}
	if len(scores) == 0 {
		return domain.TamperIndicator{}, nil
	}

	cv := imaging.CoefficientOfVariation(scores)

	return domain.TamperIndicator{
		Tampered: cv > blurThreshold,
		Score:    round2(cv),
	}, nil
}

// detectSharpnessMismatch builds one whole-image edge map, then compares
// mean edge strength across a 3x3 grid of that map.
func detectSharpnessMismatch(gray *imaging.Gray) (domain.TamperIndicator, error) {
	if gray.W/sharpnessGridSize < 1 || gray.H/sharpnessGridSize < 1 {
		return domain.TamperIndicator{Detail: "image too small for sharpness analysis"}, nil
	}

	edges := imaging.Laplacian(gray, true)

	var means []float64
	for gx := 0; gx < sharpnessGridSize; gx++ {
		for gy := 0; gy < sharpnessGridSize; gy++ {
			if m, ok := edges.CellMean(gx, gy, sharpnessGridSize, sharpnessGridSize); ok {
				means = append(means, m)
			}
		}
	}
	if len(means) == 0 {
		return domain.TamperIndicator{}, nil
	}

	cv := imaging.CoefficientOfVariation(means)

	return domain.TamperIndicator{
		Tampered: cv > sharpnessThreshold,
		Score:    round2(cv),
	}, nil
}

// detectDoubleJPEG recompresses the image at a fixed quality and compares
// byte sizes. An already twice-compressed JPEG barely changes.
func detectDoubleJPEG(bmp *imaging.Bitmap) (domain.TamperIndicator, error) {
	if !bmp.IsJPEG() {
		return domain.TamperIndicator{Detail: "not a JPEG image"}, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, bmp.Img, &jpeg.Options{Quality: recompressQuality}); err != nil {
		return domain.TamperIndicator{}, fmt.Errorf("recompress: %w", err)
	}

	originalSize := len(bmp.Raw)
	if originalSize == 0 {
		return domain.TamperIndicator{}, nil
	}

	delta := math.Abs(float64(originalSize-buf.Len())) / float64(originalSize)

	return domain.TamperIndicator{
		Tampered: delta < doubleJPEGThreshold,
		Score:    round3(delta),
	}, nil
}
