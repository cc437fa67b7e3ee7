// Package validation checks extracted document fields for format and
// plausibility: ID number format per document type, date-of-birth sanity,
// expiry status and holder age.
package validation

import (
	"math"
	"regexp"
	"time"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
)

const (
	minHolderAge = 18
	maxHolderAge = 150
)

// idNumberPatterns map each document type to its expected ID format.
// Unknown types fall back to the national ID card pattern via Normalize.
var idNumberPatterns = map[domain.DocumentType]*regexp.Regexp{
	domain.DocumentTypeIDCard:         regexp.MustCompile(`(?i)^[A-Z]{2}[0-9]{6,12}$`),
	domain.DocumentTypePassport:       regexp.MustCompile(`(?i)^[A-Z][0-9]{7,9}$`),
	domain.DocumentTypeDrivingLicense: regexp.MustCompile(`(?i)^[A-Z0-9]{8,15}$`),
	domain.DocumentTypeAadhaar:        regexp.MustCompile(`^[0-9]{12}$`),
	domain.DocumentTypePAN:            regexp.MustCompile(`(?i)^[A-Z]{5}[0-9]{4}[A-Z]$`),
}

// FieldValidator validates extracted fields against per-document-type
// rules. The reference time is injectable for tests.
type FieldValidator struct {
	now func() time.Time
}

// NewFieldValidator creates a field validator using wall-clock time
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{now: time.Now}
}

// NewFieldValidatorAt creates a field validator pinned to a fixed clock
func NewFieldValidatorAt(now func() time.Time) *FieldValidator {
	return &FieldValidator{now: now}
}

// Validate checks every field that was extracted. An absent field
// produces no sub-record at all, which downstream scoring treats
// differently from a failed check.
func (v *FieldValidator) Validate(fields domain.ExtractedFields, docType domain.DocumentType) domain.FieldValidationReport {
	report := domain.FieldValidationReport{}

	if id, ok := fields.Get(domain.FieldIDNumber); ok && id != "" {
		report.IDNumber = v.validateIDNumber(id, docType)
	}
	if dob, ok := fields.Get(domain.FieldDateOfBirth); ok && dob != "" {
		report.DOB = v.validateDateOfBirth(dob)
		report.Age = v.validateAge(dob)
	}
	if expiry, ok := fields.Get(domain.FieldExpiryDate); ok && expiry != "" {
		report.Expiry = v.validateExpiry(expiry)
	}

	return report
}

func (v *FieldValidator) validateIDNumber(id string, docType domain.DocumentType) *domain.IDNumberCheck {
	pattern := idNumberPatterns[docType.Normalize()]
	return &domain.IDNumberCheck{
		Value: id,
		Valid: pattern.MatchString(id),
	}
}

func (v *FieldValidator) validateDateOfBirth(dob string) *domain.DateCheck {
	check := &domain.DateCheck{Value: dob}

	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		check.Reason = "not a recognizable date"
		return check
	}

	now := v.now()
	if t.After(now) {
		check.Reason = "date of birth is in the future"
		return check
	}
	if now.Year()-t.Year() > maxHolderAge {
		check.Reason = "date of birth is implausibly old"
		return check
	}

	check.Valid = true
	return check
}

func (v *FieldValidator) validateExpiry(expiry string) *domain.ExpiryCheck {
	check := &domain.ExpiryCheck{Value: expiry}

	t, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		check.Reason = "not a recognizable date"
		return check
	}

	check.Valid = true
	now := v.now()
	check.Expired = t.Before(now)
	check.DaysRemaining = int(math.Ceil(t.Sub(now).Hours() / 24))
	if check.Expired {
		check.Reason = "document has expired"
	}
	return check
}

func (v *FieldValidator) validateAge(dob string) *domain.AgeCheck {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return &domain.AgeCheck{Reason: "cannot determine age from date of birth"}
	}

	now := v.now()
	age := now.Year() - t.Year()
	if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
		age--
	}

	check := &domain.AgeCheck{Age: age}
	switch {
	case age < minHolderAge:
		check.Reason = "holder is under the minimum age"
	case age > maxHolderAge:
		check.Reason = "computed age is implausible"
	default:
		check.Valid = true
	}
	return check
}
