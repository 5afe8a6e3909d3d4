package mapping

import (
	"fmt"
	"strings"
)

// ValidationResult accumulates every problem with a confirmed mapping set
// so a reviewer can fix them all in one pass.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks a confirmed mapping set for completeness and consistency.
// All rules are evaluated independently; nothing short-circuits.
func Validate(mappings []ColumnMapping) ValidationResult {
	columnsByField := make(map[Field][]string)
	for _, m := range mappings {
		if m.TargetField == "" || m.TargetField == FieldIgnore {
			continue
		}
		columnsByField[m.TargetField] = append(columnsByField[m.TargetField], m.SourceColumn)
	}

	var errs, warnings []string

	if len(columnsByField[FieldTransactionDate]) == 0 && len(columnsByField[FieldPostedDate]) == 0 {
		errs = append(errs, "a transaction date or posted date column is required")
	}
	if len(columnsByField[FieldDescription]) == 0 {
		errs = append(errs, "a description column is required")
	}

	hasAmount := len(columnsByField[FieldAmount]) > 0
	hasDebit := len(columnsByField[FieldDebitAmount]) > 0
	hasCredit := len(columnsByField[FieldCreditAmount]) > 0
	switch {
	case hasAmount:
		// a unified amount column is sufficient on its own
	case hasDebit && hasCredit:
	case hasDebit:
		errs = append(errs, "a credit column is also required when a debit column is mapped")
	case hasCredit:
		errs = append(errs, "a debit column is also required when a credit column is mapped")
	default:
		errs = append(errs, "an amount column, or both debit and credit columns, is required")
	}

	if hasAmount && (hasDebit || hasCredit) {
		warnings = append(warnings, "the amount column takes precedence over debit/credit columns during normalization")
	}

	for _, field := range fieldRegistry {
		if field == FieldIgnore {
			continue
		}
		if cols := columnsByField[field]; len(cols) > 1 {
			errs = append(errs, fmt.Sprintf("field %q is mapped by multiple columns: %s", field, strings.Join(cols, ", ")))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}
