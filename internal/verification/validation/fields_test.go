package validation_test

import (
	"testing"
	"time"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/validation"
)

// fixedNow pins the validator clock for deterministic date arithmetic
var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newValidator() *validation.FieldValidator {
	return validation.NewFieldValidatorAt(func() time.Time { return fixedNow })
}

func TestValidate_IDNumberFormats(t *testing.T) {
	tests := []struct {
		name    string
		docType domain.DocumentType
		id      string
		valid   bool
	}{
		{"id card ok", domain.DocumentTypeIDCard, "AB123456", true},
		{"id card lowercase ok", domain.DocumentTypeIDCard, "ab123456", true},
		{"id card too few digits", domain.DocumentTypeIDCard, "AB12345", false},
		{"id card no letters", domain.DocumentTypeIDCard, "12345678", false},
		{"passport ok", domain.DocumentTypePassport, "P12345678", true},
		{"passport two letters", domain.DocumentTypePassport, "PP1234567", false},
		{"driving license ok", domain.DocumentTypeDrivingLicense, "DL04201976", true},
		{"driving license too short", domain.DocumentTypeDrivingLicense, "DL1234", false},
		{"aadhaar ok", domain.DocumentTypeAadhaar, "123412341234", true},
		{"aadhaar with letters", domain.DocumentTypeAadhaar, "12341234123A", false},
		{"pan ok", domain.DocumentTypePAN, "ABCDE1234F", true},
		{"pan malformed", domain.DocumentTypePAN, "AB1234567F", false},
		{"unknown type uses id card rule", domain.DocumentType("mystery"), "AB123456", true},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := domain.ExtractedFields{domain.FieldIDNumber: tt.id}
			report := v.Validate(fields, tt.docType)

			if report.IDNumber == nil {
				t.Fatal("IDNumber check missing")
			}
			if report.IDNumber.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v for %q", report.IDNumber.Valid, tt.valid, tt.id)
			}
		})
	}
}

func TestValidate_DateOfBirth(t *testing.T) {
	tests := []struct {
		name   string
		dob    string
		valid  bool
		reason string
	}{
		{"plausible", "1990-03-15", true, ""},
		{"future", "2030-01-01", false, "date of birth is in the future"},
		{"implausibly old", "1850-01-01", false, "date of birth is implausibly old"},
		{"garbage", "not-a-date", false, "not a recognizable date"},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := domain.ExtractedFields{domain.FieldDateOfBirth: tt.dob}
			report := v.Validate(fields, domain.DocumentTypeIDCard)

			if report.DOB == nil {
				t.Fatal("DOB check missing")
			}
			if report.DOB.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", report.DOB.Valid, tt.valid)
			}
			if report.DOB.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", report.DOB.Reason, tt.reason)
			}
		})
	}
}

func TestValidate_Age(t *testing.T) {
	tests := []struct {
		name    string
		dob     string
		valid   bool
		wantAge int
	}{
		{"adult", "1990-03-15", true, 36},
		{"birthday not yet reached", "1990-07-01", true, 35},
		{"minor", "2010-01-01", false, 16},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := domain.ExtractedFields{domain.FieldDateOfBirth: tt.dob}
			report := v.Validate(fields, domain.DocumentTypeIDCard)

			if report.Age == nil {
				t.Fatal("Age check missing")
			}
			if report.Age.Age != tt.wantAge {
				t.Errorf("Age = %d, want %d", report.Age.Age, tt.wantAge)
			}
			if report.Age.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", report.Age.Valid, tt.valid)
			}
		})
	}
}

func TestValidate_Expiry(t *testing.T) {
	v := newValidator()

	t.Run("expired yesterday", func(t *testing.T) {
		fields := domain.ExtractedFields{domain.FieldExpiryDate: "2026-06-14"}
		report := v.Validate(fields, domain.DocumentTypeIDCard)

		if report.Expiry == nil {
			t.Fatal("Expiry check missing")
		}
		if !report.Expiry.Expired {
			t.Error("Expired = false for a past date")
		}
		if report.Expiry.Reason != "document has expired" {
			t.Errorf("Reason = %q", report.Expiry.Reason)
		}
		if report.Expiry.DaysRemaining > 0 {
			t.Errorf("DaysRemaining = %d, want <= 0", report.Expiry.DaysRemaining)
		}
	})

	t.Run("expires in a month", func(t *testing.T) {
		fields := domain.ExtractedFields{domain.FieldExpiryDate: "2026-07-15"}
		report := v.Validate(fields, domain.DocumentTypeIDCard)

		if report.Expiry == nil {
			t.Fatal("Expiry check missing")
		}
		if report.Expiry.Expired {
			t.Error("Expired = true for a future date")
		}
		if report.Expiry.DaysRemaining != 30 {
			t.Errorf("DaysRemaining = %d, want 30", report.Expiry.DaysRemaining)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		fields := domain.ExtractedFields{domain.FieldExpiryDate: "soon"}
		report := v.Validate(fields, domain.DocumentTypeIDCard)

		if report.Expiry == nil {
			t.Fatal("Expiry check missing")
		}
		if report.Expiry.Valid {
			t.Error("Valid = true for unparseable expiry")
		}
	})
}

func TestValidate_AbsentFieldsProduceNoChecks(t *testing.T) {
	v := newValidator()

	report := v.Validate(domain.ExtractedFields{}, domain.DocumentTypeIDCard)

	if report.IDNumber != nil || report.DOB != nil || report.Expiry != nil || report.Age != nil {
		t.Errorf("expected an empty report for empty fields, got %+v", report)
	}
}
