package accounts

import "strings"

// Per-criterion scores and confidence thresholds for bank matching.
// Each criterion contributes at most once per bank.
const (
	institutionScore = 40
	maskScore        = 50
	typeScore        = 10

	highMatchThreshold   = 50
	mediumMatchThreshold = 30
)

// MatchConfidence buckets a bank-match score.
type MatchConfidence string

const (
	MatchHigh   MatchConfidence = "high"
	MatchMedium MatchConfidence = "medium"
	MatchNone   MatchConfidence = "none"
)

// BankBalance is one registered balance on a known bank account.
type BankBalance struct {
	Mask string
	Type string
}

// KnownBank is an already-connected bank account the matcher scores against.
type KnownBank struct {
	ID       string
	Name     string
	Balances []BankBalance
}

// BankMatch is the suggested pairing of an extracted account identity with
// a known bank. BankID is empty when no bank scored above zero. Confidence
// is derived from the score alone: a low positive score still attaches a
// bank reference but reports confidence none.
type BankMatch struct {
	Info       Info            `json:"accountInfo"`
	BankID     string          `json:"matchedBankId,omitempty"`
	Confidence MatchConfidence `json:"confidence"`
	Score      int             `json:"score"`
}

// Match scores the extracted identity against every known bank and selects
// the strictly highest scorer. On a tie the earlier bank in the list keeps
// the match, so identical inputs always produce identical output.
func Match(info Info, banks []KnownBank) BankMatch {
	var bestID string
	bestScore := 0

	for _, bank := range banks {
		if score := scoreBank(info, bank); score > bestScore {
			bestScore = score
			bestID = bank.ID
		}
	}

	match := BankMatch{Info: info, Score: bestScore, Confidence: MatchNone}
	if bestScore > 0 {
		match.BankID = bestID
	}
	switch {
	case bestScore >= highMatchThreshold:
		match.Confidence = MatchHigh
	case bestScore >= mediumMatchThreshold:
		match.Confidence = MatchMedium
	}
	return match
}

func scoreBank(info Info, bank KnownBank) int {
	score := 0
	loweredName := strings.ToLower(bank.Name)

	if info.InstitutionName != "" && bank.Name != "" {
		inst := strings.ToLower(info.InstitutionName)
		if strings.Contains(loweredName, inst) || strings.Contains(inst, loweredName) {
			score += institutionScore
		}
	}

	if info.AccountMask != "" {
		matched := false
		for _, balance := range bank.Balances {
			if balance.Mask != "" && balance.Mask == info.AccountMask {
				matched = true
				break
			}
		}
		// Name fallback applies only when no registered balance mask matched.
		if !matched && strings.Contains(loweredName, info.AccountMask) {
			matched = true
		}
		if matched {
			score += maskScore
		}
	}

	if info.AccountType != "" {
		matched := false
		for _, balance := range bank.Balances {
			if balance.Type != "" && balance.Type == info.AccountType {
				matched = true
				break
			}
		}
		if !matched && strings.Contains(loweredName, strings.ReplaceAll(info.AccountType, "_", " ")) {
			matched = true
		}
		if matched {
			score += typeScore
		}
	}

	return score
}
