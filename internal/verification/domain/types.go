package domain

import "time"

// DocumentType represents the kind of identity document under verification
type DocumentType string

const (
	DocumentTypeIDCard         DocumentType = "id_card"
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeDrivingLicense DocumentType = "driving_license"
	DocumentTypeAadhaar        DocumentType = "aadhaar"
	DocumentTypePAN            DocumentType = "pan"
)

// Normalize maps an unknown document type to the generic ID card rules
func (t DocumentType) Normalize() DocumentType {
	switch t {
	case DocumentTypeIDCard, DocumentTypePassport, DocumentTypeDrivingLicense,
		DocumentTypeAadhaar, DocumentTypePAN:
		return t
	default:
		return DocumentTypeIDCard
	}
}

// RiskLevel is the ordinal classification derived from the risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Recommendation is the pipeline's suggested action, subject to later
// human override in the admin workflow.
type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendReview  Recommendation = "REVIEW"
	RecommendReject  Recommendation = "REJECT"
)

// Extracted field names. Absence of a key means the field was not found;
// an empty string is never stored.
const (
	FieldName         = "name"
	FieldIDNumber     = "id_number"
	FieldDateOfBirth  = "date_of_birth"
	FieldExpiryDate   = "expiry_date"
	FieldGender       = "gender"
	FieldAddress      = "address"
	FieldNationality  = "nationality"
	FieldDocumentType = "document_type"
)

// ExtractedFields maps field names to recognized values
type ExtractedFields map[string]string

// Get returns the field value and whether it was extracted
func (f ExtractedFields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// OCRReport is the output of the OCR extraction stage
type OCRReport struct {
	Fields       ExtractedFields `json:"fields"`
	Confidence   float64         `json:"confidence"`
	Completeness float64         `json:"completeness"`
	RawText      string          `json:"raw_text,omitempty"`
	WordCount    int             `json:"word_count"`
	LineCount    int             `json:"line_count"`
}

// QualityReport describes bitmap-level quality of the uploaded document
type QualityReport struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Format           string  `json:"format"`
	AspectRatio      float64 `json:"aspect_ratio"`
	ResolutionValid  bool    `json:"resolution_valid"`
	AspectRatioValid bool    `json:"aspect_ratio_valid"`
	Brightness       float64 `json:"brightness"`
	BrightnessValid  bool    `json:"brightness_valid"`
	Sharpness        float64 `json:"sharpness"`
	QualityScore     float64 `json:"quality_score"`
}

// TemplateReport estimates structural plausibility from edge density
type TemplateReport struct {
	FormatValid   bool    `json:"format_valid"`
	TemplateScore float64 `json:"template_score"`
	EdgeDensity   float64 `json:"edge_density"`
	HasStructure  bool    `json:"has_structure"`
}

// IDNumberCheck reports format validation of the extracted ID number
type IDNumberCheck struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// DateCheck reports sanity validation of the extracted date of birth
type DateCheck struct {
	Value  string `json:"value"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ExpiryCheck reports expiry validation of the document
type ExpiryCheck struct {
	Value         string `json:"value"`
	Valid         bool   `json:"valid"`
	Expired       bool   `json:"expired"`
	DaysRemaining int    `json:"days_remaining"`
	Reason        string `json:"reason,omitempty"`
}

// AgeCheck reports the holder-age consistency check
type AgeCheck struct {
	Valid  bool   `json:"valid"`
	Age    int    `json:"age"`
	Reason string `json:"reason,omitempty"`
}

// FieldValidationReport holds per-field checks. A nil sub-record means the
// source field was absent from the OCR output, which is not a failure.
type FieldValidationReport struct {
	IDNumber *IDNumberCheck `json:"id_number,omitempty"`
	DOB      *DateCheck     `json:"dob,omitempty"`
	Expiry   *ExpiryCheck   `json:"expiry,omitempty"`
	Age      *AgeCheck      `json:"age,omitempty"`
}

// TamperIndicator is the result of a single forensic detector
type TamperIndicator struct {
	Tampered bool    `json:"tampered"`
	Score    float64 `json:"score"`
	Detail   string  `json:"detail,omitempty"`
}

// ForensicsReport aggregates the four tamper detectors
type ForensicsReport struct {
	Tampered      bool            `json:"tampered"`
	TamperScore   float64         `json:"tamper_score"`
	TamperedCount int             `json:"tampered_count"`
	CopyPaste     TamperIndicator `json:"copy_paste"`
	Blur          TamperIndicator `json:"blur"`
	Sharpness     TamperIndicator `json:"sharpness_mismatch"`
	DoubleJPEG    TamperIndicator `json:"double_jpeg"`
}

// MetadataReport summarizes capture-metadata provenance signals
type MetadataReport struct {
	MetadataRisk       RiskLevel `json:"metadata_risk"`
	HasEditingSoftware bool      `json:"has_editing_software"`
	EditingSoftware    string    `json:"editing_software,omitempty"`
	IsScreenshot       bool      `json:"is_screenshot"`
	HasCameraMetadata  bool      `json:"has_camera_metadata"`
	CameraMake         string    `json:"camera_make,omitempty"`
	CameraModel        string    `json:"camera_model,omitempty"`
	ProvenanceScore    float64   `json:"provenance_score"`
	RiskScore          int       `json:"risk_score"`
	RiskFactors        []string  `json:"risk_factors,omitempty"`
}

// VerificationVerdict is the final output of the risk aggregator.
// It is created once and never mutated.
type VerificationVerdict struct {
	RiskScore      int            `json:"risk_score"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`
	Penalties      []string       `json:"penalties,omitempty"`
}

// VerificationReport bundles every sub-report with the verdict so the
// admin workflow can audit how the score was reached.
type VerificationReport struct {
	DocumentType     DocumentType          `json:"document_type"`
	OCR              OCRReport             `json:"ocr"`
	Quality          QualityReport         `json:"quality"`
	Template         TemplateReport        `json:"template"`
	Fields           FieldValidationReport `json:"fields"`
	ValidationScore  float64               `json:"validation_score"`
	ValidationPassed bool                  `json:"validation_passed"`
	Forensics        ForensicsReport       `json:"forensics"`
	Metadata         MetadataReport        `json:"metadata"`
	Verdict          VerificationVerdict   `json:"verdict"`

	// Degraded lists analyzers that failed internally and were replaced
	// by their conservative default, keyed by analyzer name.
	Degraded map[string]string `json:"degraded,omitempty"`

	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// DecisionStatus tracks the human approval workflow over a stored result
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "PENDING"
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// VerificationResult is the persisted record of one verification run
type VerificationResult struct {
	ID             string         `db:"id" json:"id"`
	AgentID        string         `db:"agent_id" json:"agent_id"`
	DocumentID     string         `db:"document_id" json:"document_id"`
	DocumentType   DocumentType   `db:"document_type" json:"document_type"`
	RiskScore      int            `db:"risk_score" json:"risk_score"`
	RiskLevel      RiskLevel      `db:"risk_level" json:"risk_level"`
	Recommendation Recommendation `db:"recommendation" json:"recommendation"`

	// Full report stored as JSONB for audit display
	Report []byte `db:"report" json:"-"`

	DecisionStatus DecisionStatus `db:"decision_status" json:"decision_status"`
	DecidedBy      *string        `db:"decided_by" json:"decided_by,omitempty"`
	DecisionNotes  *string        `db:"decision_notes" json:"decision_notes,omitempty"`
	DecidedAt      *time.Time     `db:"decided_at" json:"decided_at,omitempty"`

	VerifiedAt time.Time `db:"verified_at" json:"verified_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// VerificationStats summarizes stored results for the admin dashboard
type VerificationStats struct {
	Total        int `db:"total" json:"total"`
	Pending      int `db:"pending" json:"pending"`
	Approved     int `db:"approved" json:"approved"`
	Rejected     int `db:"rejected" json:"rejected"`
	HighRisk     int `db:"high_risk" json:"high_risk"`
	CriticalRisk int `db:"critical_risk" json:"critical_risk"`
}
