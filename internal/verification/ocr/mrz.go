package ocr

import (
	"strings"
	"unicode"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
)

// Machine readable zone support per ICAO 9303. Passports carry a TD3
// zone (2 lines x 44 chars); most national ID cards carry TD1 (3 lines
// x 30 chars). When a transcript contains a zone, its fields are far
// more reliable than the labeled-text patterns and override them.
const (
	td1LineLength = 30
	td1LineCount  = 3
	td3LineLength = 44
	td3LineCount  = 2
)

// ParseMRZ scans a transcript for a machine readable zone and extracts
// identity fields from it. The second return value reports whether a
// zone was found at all.
func ParseMRZ(text string) (domain.ExtractedFields, bool) {
	lines := mrzCandidateLines(text)

	for i := range lines {
		if td3, ok := takeZone(lines, i, td3LineCount, td3LineLength); ok && td3[0][0] == 'P' {
			return parseTD3(td3), true
		}
		if td1, ok := takeZone(lines, i, td1LineCount, td1LineLength); ok && (td1[0][0] == 'I' || td1[0][0] == 'A' || td1[0][0] == 'C') {
			return parseTD1(td1), true
		}
	}

	return nil, false
}

// mrzCandidateLines keeps only lines made of the MRZ alphabet
func mrzCandidateLines(text string) []string {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToUpper(strings.TrimSpace(line))
		if len(line) >= td1LineLength && isMRZLine(line) {
			candidates = append(candidates, line)
		}
	}
	return candidates
}

func isMRZLine(line string) bool {
	for _, c := range line {
		if c != '<' && !unicode.IsDigit(c) && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// takeZone returns count consecutive candidate lines of at least the
// given length, truncated/padded to exactly that length.
func takeZone(lines []string, start, count, length int) ([]string, bool) {
	if start+count > len(lines) {
		return nil, false
	}

	zone := make([]string, count)
	for i := 0; i < count; i++ {
		line := lines[start+i]
		if len(line) < length {
			// Recognition often drops trailing filler; tolerate short
			// lines within a few characters.
			if len(line) < length-4 {
				return nil, false
			}
			line += strings.Repeat("<", length-len(line))
		}
		zone[i] = line[:length]
	}
	return zone, true
}

// parseTD3 reads a passport zone.
// Line 1: P<ISSUERLAST<<FIRST<MIDDLE...
// Line 2: number(0-8) check(9) nationality(10-12) dob(13-18) check(19)
// gender(20) expiry(21-26) check(27)
func parseTD3(zone []string) domain.ExtractedFields {
	fields := domain.ExtractedFields{}
	line1, line2 := zone[0], zone[1]

	if name := mrzName(line1[5:]); name != "" {
		fields[domain.FieldName] = name
	}
	if number := mrzValue(line2[0:9]); number != "" {
		fields[domain.FieldIDNumber] = number
	}
	if nat := mrzValue(line2[10:13]); nat != "" {
		fields[domain.FieldNationality] = nat
	}
	if dob := mrzDate(line2[13:19], true); dob != "" {
		fields[domain.FieldDateOfBirth] = dob
	}
	if gender := mrzGender(line2[20]); gender != "" {
		fields[domain.FieldGender] = gender
	}
	if expiry := mrzDate(line2[21:27], false); expiry != "" {
		fields[domain.FieldExpiryDate] = expiry
	}

	return fields
}

// parseTD1 reads an ID card zone.
// Line 1: doc type + issuer + number(5-13) check(14)
// Line 2: dob(0-5) check(6) gender(7) expiry(8-13) check(14) nationality(15-17)
// Line 3: LAST<<FIRST<MIDDLE...
func parseTD1(zone []string) domain.ExtractedFields {
	fields := domain.ExtractedFields{}
	line1, line2, line3 := zone[0], zone[1], zone[2]

	if number := mrzValue(line1[5:14]); number != "" {
		fields[domain.FieldIDNumber] = number
	}
	if dob := mrzDate(line2[0:6], true); dob != "" {
		fields[domain.FieldDateOfBirth] = dob
	}
	if gender := mrzGender(line2[7]); gender != "" {
		fields[domain.FieldGender] = gender
	}
	if expiry := mrzDate(line2[8:14], false); expiry != "" {
		fields[domain.FieldExpiryDate] = expiry
	}
	if nat := mrzValue(line2[15:18]); nat != "" {
		fields[domain.FieldNationality] = nat
	}
	if name := mrzName(line3); name != "" {
		fields[domain.FieldName] = name
	}

	return fields
}

// mrzValue strips filler characters from a fixed-width field
func mrzValue(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", ""))
}

// mrzName converts "LAST<<FIRST<MIDDLE" to "First Middle Last" casing
// left as recognized
func mrzName(s string) string {
	parts := strings.SplitN(strings.TrimRight(s, "< "), "<<", 2)

	last := strings.TrimSpace(strings.ReplaceAll(parts[0], "<", " "))
	if len(parts) == 1 {
		return last
	}

	first := strings.TrimSpace(strings.ReplaceAll(parts[1], "<", " "))
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// mrzDate converts a YYMMDD zone date to YYYY-MM-DD. Birth dates pivot
// two-digit years at 50 like the labeled-text path; expiry dates are
// always in the 2000s.
func mrzDate(s string, birth bool) string {
	if len(s) != 6 {
		return ""
	}
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return ""
		}
	}

	yy, mm, dd := s[0:2], s[2:4], s[4:6]
	century := "20"
	if birth && yy > "50" {
		century = "19"
	}
	return century + yy + "-" + mm + "-" + dd
}

func mrzGender(c byte) string {
	switch c {
	case 'M':
		return "Male"
	case 'F':
		return "Female"
	}
	return ""
}
