package accounts

import "strings"

// fileScanLineLimit caps how many leading raw lines ScanFile inspects.
const fileScanLineLimit = 10

// ScanResult holds the identity fields recovered from raw statement text.
// Absent fields are empty; extraction never fails, it just finds less.
type ScanResult struct {
	AccountMask     string `json:"accountMask,omitempty"`
	InstitutionName string `json:"institutionName,omitempty"`
	AccountType     string `json:"accountType,omitempty"`
}

// Scan runs the three independent ordered-table scans (mask, institution,
// account type) against one piece of text. Each scan stops at its first
// matching rule; the three results do not depend on one another.
func Scan(text string) ScanResult {
	lowered := strings.ToLower(text)
	return ScanResult{
		AccountMask:     scanMask(lowered),
		InstitutionName: scanInstitution(lowered),
		AccountType:     scanType(lowered),
	}
}

// ScanFile scans the leading raw lines of a statement file plus its
// filename. The mask scan prefers the file contents and falls back to the
// filename; institution and type scans see both combined.
func ScanFile(lines []string, filename string) ScanResult {
	if len(lines) > fileScanLineLimit {
		lines = lines[:fileScanLineLimit]
	}
	joined := strings.ToLower(strings.Join(lines, " "))
	loweredName := strings.ToLower(filename)

	mask := scanMask(joined)
	if mask == "" {
		mask = scanMask(loweredName)
	}

	combined := joined + " " + loweredName
	return ScanResult{
		AccountMask:     mask,
		InstitutionName: scanInstitution(combined),
		AccountType:     scanType(combined),
	}
}

func scanMask(lowered string) string {
	for _, pattern := range maskPatterns {
		if m := pattern.FindStringSubmatch(lowered); m != nil {
			return m[1]
		}
	}
	return ""
}

func scanInstitution(lowered string) string {
	for _, rule := range institutionRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.name
			}
		}
	}
	return ""
}

func scanType(lowered string) string {
	for _, rule := range accountTypeRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.accountType
			}
		}
	}
	return ""
}
