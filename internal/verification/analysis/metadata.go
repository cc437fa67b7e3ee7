package analysis

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/imaging"
)

// Metadata risk rollup weights and level cutoffs
const (
	metadataRiskEditingSoftware = 40
	metadataRiskScreenshot      = 50
	metadataRiskNoCamera        = 30

	metadataRiskHighCutoff   = 70
	metadataRiskMediumCutoff = 40

	// Provenance score weights: make and model carry most of the signal
	provenanceWeightMake     = 0.4
	provenanceWeightModel    = 0.4
	provenanceWeightDateTime = 0.2
)

// editingSoftwareKeywords flags images that passed through an editor.
// Matched as substrings of the combined software/creator/description text.
var editingSoftwareKeywords = []string{
	"photoshop",
	"gimp",
	"paint.net",
	"pixlr",
	"canva",
	"lightroom",
	"snapseed",
	"vsco",
	"picsart",
	"adobe",
}

// screenshotFilenameTokens mark filenames produced by screen-capture tools
var screenshotFilenameTokens = []string{"screenshot", "screen_", "scr_"}

// captureMetadata is the subset of EXIF fields the analyzer inspects
type captureMetadata struct {
	Make        string
	Model       string
	Software    string
	DateTime    string
	Artist      string
	Description string
	HasGPS      bool
}

// MetadataAnalyzer inspects embedded capture metadata for provenance
// signals: editing-tool signatures, screen-capture markers and the
// presence of genuine camera information.
type MetadataAnalyzer struct{}

// NewMetadataAnalyzer creates a metadata analyzer
func NewMetadataAnalyzer() *MetadataAnalyzer {
	return &MetadataAnalyzer{}
}

// Name identifies the analyzer in logs and degradation records
func (a *MetadataAnalyzer) Name() string { return "metadata" }

// Analyze extracts EXIF metadata from the original bytes and rolls the
// provenance signals into a metadata risk level. An image without EXIF
// (e.g. PNG) is not an error; it simply has no camera provenance.
func (a *MetadataAnalyzer) Analyze(bmp *imaging.Bitmap, filename string) (domain.MetadataReport, error) {
	meta := extractCaptureMetadata(bmp.Raw)

	report := domain.MetadataReport{}
	var factors []string

	// Editing software
	combined := strings.ToLower(meta.Software + " " + meta.Artist + " " + meta.Description)
	for _, kw := range editingSoftwareKeywords {
		if strings.Contains(combined, kw) {
			report.HasEditingSoftware = true
			report.EditingSoftware = kw
			break
		}
	}

	// Screenshot markers
	software := strings.ToLower(meta.Software)
	if strings.Contains(software, "screenshot") || strings.Contains(software, "screen capture") {
		report.IsScreenshot = true
		factors = append(factors, "Software field indicates screenshot")
	}
	lowerName := strings.ToLower(filename)
	for _, token := range screenshotFilenameTokens {
		if lowerName != "" && strings.Contains(lowerName, token) {
			if !report.IsScreenshot {
				report.IsScreenshot = true
			}
			factors = append(factors, "Filename suggests screenshot")
			break
		}
	}

	// Camera provenance
	report.CameraMake = meta.Make
	report.CameraModel = meta.Model
	report.HasCameraMetadata = meta.Make != "" || meta.Model != ""

	var provenance float64
	if meta.Make != "" {
		provenance += provenanceWeightMake
	}
	if meta.Model != "" {
		provenance += provenanceWeightModel
	}
	if meta.DateTime != "" {
		provenance += provenanceWeightDateTime
	}
	report.ProvenanceScore = round2(provenance)

	// Risk rollup
	risk := 0
	if report.HasEditingSoftware {
		risk += metadataRiskEditingSoftware
		factors = append(factors, "Editing software detected: "+report.EditingSoftware)
	}
	if report.IsScreenshot {
		risk += metadataRiskScreenshot
		factors = append(factors, "Image appears to be a screenshot")
	}
	if !report.HasCameraMetadata {
		risk += metadataRiskNoCamera
		factors = append(factors, "Missing camera metadata")
	}

	report.RiskScore = risk
	report.RiskFactors = factors
	report.MetadataRisk = rollupMetadataRisk(risk)

	return report, nil
}

// DefaultMetadataReport is the degraded fallback when extraction itself
// fails: medium risk, failing toward caution rather than silence.
func DefaultMetadataReport() domain.MetadataReport {
	return domain.MetadataReport{
		MetadataRisk: domain.RiskMedium,
		RiskScore:    50,
		RiskFactors:  []string{"Metadata analysis failed - defaulting to medium risk"},
	}
}

func rollupMetadataRisk(score int) domain.RiskLevel {
	switch {
	case score >= metadataRiskHighCutoff:
		return domain.RiskHigh
	case score >= metadataRiskMediumCutoff:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// extractCaptureMetadata reads the EXIF block. Images without one yield
// an empty struct.
func extractCaptureMetadata(raw []byte) captureMetadata {
	var meta captureMetadata

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return meta
	}

	meta.Make = tagString(x, exif.Make)
	meta.Model = tagString(x, exif.Model)
	meta.Software = tagString(x, exif.Software)
	meta.Artist = tagString(x, exif.Artist)
	meta.Description = tagString(x, exif.ImageDescription)

	meta.DateTime = tagString(x, exif.DateTimeOriginal)
	if meta.DateTime == "" {
		meta.DateTime = tagString(x, exif.DateTime)
	}

	if _, _, err := x.LatLong(); err == nil {
		meta.HasGPS = true
	}

	return meta
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
