package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
)

// Field extraction patterns. These run against the raw transcript, which
// is noisy; each field tries its patterns in order and keeps the first
// match. Absent fields are simply not set.
var (
	// Name capture stays on one line; letting it cross newlines swallows
	// the next label.
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)full name[:\s]*([a-z][a-z .]*)`),
		regexp.MustCompile(`(?i)name[:\s]*([a-z][a-z .]*)`),
		regexp.MustCompile(`(?i)holder[:\s]*([a-z][a-z .]*)`),
	}

	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:id|identification|card)[\s#:]*([A-Z0-9]{6,20})`),
		regexp.MustCompile(`(?i)(?:number|no|#)[\s:]*([A-Z0-9]{6,20})`),
		// Fallback: two letters followed by 6-15 digits, e.g. AB123456789
		regexp.MustCompile(`(?i)\b([A-Z]{2}[0-9]{6,15})\b`),
	}

	dobPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:dob|date of birth|born)[\s:]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
		regexp.MustCompile(`(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})`),
	}

	expiryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:expiry|expires|valid until)[\s:]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
		regexp.MustCompile(`(?i)(?:exp|expiration)[\s:]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	}

	malePattern   = regexp.MustCompile(`(?i)\b(male|m)\b`)
	femalePattern = regexp.MustCompile(`(?i)\b(female|f)\b`)
	femaleWord    = regexp.MustCompile(`(?i)female`)

	// Address: labeled multi-line capture, 20-150 chars, up to the next
	// blank line or a line starting with a capital (a new labeled block)
	addressPattern = regexp.MustCompile(`(?i)address[:\s]*([\s\S]{20,150}?)(\n\n|\n[A-Z]|$)`)

	dateSeparators = regexp.MustCompile(`[/\-.]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// ParseFields extracts structured identity fields from a transcript.
// All matching is case-insensitive; the document type is recorded as-is.
func ParseFields(text string, docType domain.DocumentType) domain.ExtractedFields {
	fields := domain.ExtractedFields{}

	for _, p := range namePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				fields[domain.FieldName] = name
				break
			}
		}
	}

	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			fields[domain.FieldIDNumber] = strings.TrimSpace(m[1])
			break
		}
	}

	for _, p := range dobPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			fields[domain.FieldDateOfBirth] = NormalizeDate(m[1])
			break
		}
	}

	for _, p := range expiryPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			fields[domain.FieldExpiryDate] = NormalizeDate(m[1])
			break
		}
	}

	// Female takes precedence: a bare "F"/"female" wins over the "male"
	// substring it contains.
	if malePattern.MatchString(text) && !femaleWord.MatchString(text) {
		fields[domain.FieldGender] = "Male"
	} else if femalePattern.MatchString(text) {
		fields[domain.FieldGender] = "Female"
	}

	if m := addressPattern.FindStringSubmatch(text); m != nil {
		addr := strings.TrimSpace(whitespaceRun.ReplaceAllString(m[1], " "))
		if addr != "" {
			fields[domain.FieldAddress] = addr
		}
	}

	fields[domain.FieldDocumentType] = string(docType)

	return fields
}

// NormalizeDate converts recognized dates to YYYY-MM-DD. Inputs use any
// of the separators / - . and a 2- or 4-digit year. The day-first rule
// applies when the first numeric group is a plausible day (<= 31), else
// the input is assumed year-first. Already-ISO input passes through
// unchanged, so normalization is idempotent.
//
// Note the inherent ambiguity: an all-<=31 triple like 01/02/2020 is
// read day-first (1 Feb 2020), which misreads month-first locales. This
// matches the documented extraction contract and is not corrected here.
func NormalizeDate(dateStr string) string {
	parts := dateSeparators.Split(dateStr, -1)
	if len(parts) != 3 {
		return dateStr
	}

	first, second, third := parts[0], parts[1], parts[2]

	firstNum, err := strconv.Atoi(first)
	if err != nil {
		return dateStr
	}

	if firstNum <= 31 {
		// Day-first: DD/MM/YY[YY]. The year expansion happens only here;
		// in year-first input the third group is a day, not a year.
		if len(third) == 2 {
			if n, err := strconv.Atoi(third); err == nil {
				if n > 50 {
					third = "19" + third
				} else {
					third = "20" + third
				}
			}
		}
		return third + "-" + pad2(second) + "-" + pad2(first)
	}
	// Year-first: YYYY-MM-DD
	return first + "-" + pad2(second) + "-" + pad2(third)
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
