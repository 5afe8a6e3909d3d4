// Package transfers detects same-day, opposite-sign, cross-account row
// pairs that represent internal movements of funds between accounts the
// business controls, so they are not double-booked during import.
package transfers

import (
	"math"
	"strings"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/normalizer"
)

// amountTolerance is the maximum difference between the two magnitudes of
// a pair, in currency units.
const amountTolerance = 0.01

// Columns names the source columns the detector reads. Either Amount or
// the Debit/Credit pair must be set.
type Columns struct {
	SourceAccount string
	Date          string
	Amount        string
	Debit         string
	Credit        string
}

// Candidate is one proposed transfer pair. The two row indices are always
// distinct, and within one Detect call no row index appears in more than
// one candidate.
type Candidate struct {
	DebitRowIndex  int     `json:"debitRowIndex"`
	CreditRowIndex int     `json:"creditRowIndex"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
	DebitAccount   string  `json:"debitAccount"`
	CreditAccount  string  `json:"creditAccount"`
}

type resolvedRow struct {
	rowIndex int
	account  string
	date     string
	amount   float64
}

// Detect pairs each debit row with the first later credit row on a
// different account, the identical date string, and a magnitude within
// tolerance. The pairing is greedy first-match, not globally optimal: a
// row consumed by an earlier debit is unavailable to later ones, which is
// the property reviewers rely on for reproducible suggestions.
func Detect(rows []map[string]string, cols Columns) []Candidate {
	resolved := resolve(rows, cols)
	consumed := make([]bool, len(resolved))

	var out []Candidate
	for i, debit := range resolved {
		if consumed[i] || debit.amount >= 0 {
			continue
		}
		for j := i + 1; j < len(resolved); j++ {
			credit := resolved[j]
			if consumed[j] || credit.amount <= 0 {
				continue
			}
			if credit.account == debit.account || credit.date != debit.date {
				continue
			}
			if math.Abs(credit.amount+debit.amount) > amountTolerance {
				continue
			}
			consumed[i], consumed[j] = true, true
			out = append(out, Candidate{
				DebitRowIndex:  debit.rowIndex,
				CreditRowIndex: credit.rowIndex,
				Amount:         math.Abs(debit.amount),
				Date:           debit.date,
				DebitAccount:   debit.account,
				CreditAccount:  credit.account,
			})
			break
		}
	}
	return out
}

// resolve maps every usable row to (account, date, signed amount). Rows
// with a missing account or date, or whose amount is unparsable or zero,
// are dropped here and never considered for pairing.
func resolve(rows []map[string]string, cols Columns) []resolvedRow {
	out := make([]resolvedRow, 0, len(rows))
	for i, row := range rows {
		account := strings.TrimSpace(row[cols.SourceAccount])
		date := strings.TrimSpace(row[cols.Date])
		if account == "" || date == "" {
			continue
		}

		var amountRaw, debitRaw, creditRaw string
		if cols.Amount != "" {
			amountRaw = row[cols.Amount]
		}
		if cols.Debit != "" {
			debitRaw = row[cols.Debit]
		}
		if cols.Credit != "" {
			creditRaw = row[cols.Credit]
		}

		amount, ok := normalizer.ParseAmount(amountRaw, debitRaw, creditRaw)
		if !ok || amount == 0 {
			continue
		}
		out = append(out, resolvedRow{rowIndex: i, account: account, date: date, amount: amount})
	}
	return out
}
