package ocr_test

import (
	"context"
	"testing"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/ocr"
	"github.com/guardlink/guardlink-backend/pkg/logger"
)

// ICAO 9303 specimen zones
const (
	td3Zone = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\n" +
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	td1Zone = "I<UTOD231458907<<<<<<<<<<<<<<<\n" +
		"7408122F1204159UTO<<<<<<<<<<<6\n" +
		"ERIKSSON<<ANNA<MARIA<<<<<<<<<<"
)

func TestParseMRZ_TD3(t *testing.T) {
	fields, ok := ocr.ParseMRZ(td3Zone)
	if !ok {
		t.Fatal("no zone detected in TD3 specimen")
	}

	want := map[string]string{
		domain.FieldName:        "ANNA MARIA ERIKSSON",
		domain.FieldIDNumber:    "L898902C3",
		domain.FieldNationality: "UTO",
		domain.FieldDateOfBirth: "1974-08-12",
		domain.FieldGender:      "Female",
		domain.FieldExpiryDate:  "2012-04-15",
	}
	for key, wantVal := range want {
		if got, _ := fields.Get(key); got != wantVal {
			t.Errorf("field %q = %q, want %q", key, got, wantVal)
		}
	}
}

func TestParseMRZ_TD1(t *testing.T) {
	fields, ok := ocr.ParseMRZ(td1Zone)
	if !ok {
		t.Fatal("no zone detected in TD1 specimen")
	}

	want := map[string]string{
		domain.FieldName:        "ANNA MARIA ERIKSSON",
		domain.FieldIDNumber:    "D23145890",
		domain.FieldNationality: "UTO",
		domain.FieldDateOfBirth: "1974-08-12",
		domain.FieldGender:      "Female",
		domain.FieldExpiryDate:  "2012-04-15",
	}
	for key, wantVal := range want {
		if got, _ := fields.Get(key); got != wantVal {
			t.Errorf("field %q = %q, want %q", key, got, wantVal)
		}
	}
}

func TestParseMRZ_EmbeddedInTranscript(t *testing.T) {
	text := "REPUBLIC OF UTOPIA\nPASSPORT\n" + td3Zone + "\nsome trailing footer text"

	fields, ok := ocr.ParseMRZ(text)
	if !ok {
		t.Fatal("zone not found inside a larger transcript")
	}
	if got, _ := fields.Get(domain.FieldIDNumber); got != "L898902C3" {
		t.Errorf("id number = %q, want L898902C3", got)
	}
}

func TestParseMRZ_NoZone(t *testing.T) {
	texts := []string{
		"",
		"Full Name: John Smith\nID: AB1234567",
		"SHOUTING HEADER LINE WITH SPACES EVERYWHERE",
	}
	for _, text := range texts {
		if _, ok := ocr.ParseMRZ(text); ok {
			t.Errorf("ParseMRZ(%q) detected a zone", text)
		}
	}
}

func TestExtractor_MRZOverridesLabeledText(t *testing.T) {
	// The labeled block disagrees with the zone; the zone wins
	engine := &fakeEngine{result: ocr.Result{
		Text:       "Name: John Smith\nDOB: 01/01/1980\n" + td3Zone + "\n",
		Confidence: 0.9,
	}}
	extractor := ocr.NewExtractor(engine, logger.New("test", "test"))

	report := extractor.Extract(context.Background(), testBitmap(t), domain.DocumentTypePassport)

	if got, _ := report.Fields.Get(domain.FieldName); got != "ANNA MARIA ERIKSSON" {
		t.Errorf("name = %q, want zone value", got)
	}
	if got, _ := report.Fields.Get(domain.FieldDateOfBirth); got != "1974-08-12" {
		t.Errorf("date of birth = %q, want zone value", got)
	}
	if got, _ := report.Fields.Get(domain.FieldNationality); got != "UTO" {
		t.Errorf("nationality = %q, want UTO", got)
	}
}
