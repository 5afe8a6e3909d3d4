package mapping

import "strings"

// Score multipliers and confidence thresholds for header matching.
const (
	exactMatchMultiplier    = 10
	containsMatchMultiplier = 7
	wordsMatchMultiplier    = 5

	highScoreThreshold   = 70
	mediumScoreThreshold = 40
	lowScoreThreshold    = 20
)

// Suggest proposes one mapping per source header, in file column order.
// Each canonical field is claimed by at most one header: once a header wins
// a field, later headers cannot take it. Ties between fields break by
// registry order, so re-running the same headers always yields the same
// suggestions.
func Suggest(headers []string) []ColumnMapping {
	claimed := make(map[Field]bool, len(headers))
	out := make([]ColumnMapping, 0, len(headers))

	for _, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))

		var bestField Field
		var bestScore float64
		for _, field := range fieldRegistry {
			if field == FieldIgnore || claimed[field] {
				continue
			}
			if score := scoreHeader(normalized, field); score > bestScore {
				bestScore = score
				bestField = field
			}
		}

		m := ColumnMapping{SourceColumn: header, Confidence: ConfidenceNone}
		if conf := bucketScore(bestScore); conf != ConfidenceNone {
			m.TargetField = bestField
			m.Confidence = conf
			claimed[bestField] = true
		}
		out = append(out, m)
	}

	promotePostedDate(out, claimed)
	return out
}

// scoreHeader computes the keyword score of one normalized header against
// one canonical field: exact match, substring containment, then all words
// of a keyword phrase individually present.
func scoreHeader(normalized string, field Field) float64 {
	var best float64
	for _, pattern := range keywordPatterns {
		if pattern.Field != field {
			continue
		}
		for _, keyword := range pattern.Keywords {
			var score float64
			switch {
			case normalized == keyword:
				score = pattern.Weight * exactMatchMultiplier
			case strings.Contains(normalized, keyword):
				score = pattern.Weight * containsMatchMultiplier
			case allWordsPresent(normalized, keyword):
				score = pattern.Weight * wordsMatchMultiplier
			}
			if score > best {
				best = score
			}
		}
	}
	return best
}

func allWordsPresent(normalized, keyword string) bool {
	words := strings.Fields(keyword)
	if len(words) < 2 {
		return false
	}
	for _, word := range words {
		if !strings.Contains(normalized, word) {
			return false
		}
	}
	return true
}

func bucketScore(score float64) Confidence {
	switch {
	case score >= highScoreThreshold:
		return ConfidenceHigh
	case score >= mediumScoreThreshold:
		return ConfidenceMedium
	case score >= lowScoreThreshold:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// promotePostedDate upgrades a postedDate column to transactionDate when no
// header claimed the primary date: every import needs one, and a posted
// date alone is sufficient.
func promotePostedDate(mappings []ColumnMapping, claimed map[Field]bool) {
	if claimed[FieldTransactionDate] || !claimed[FieldPostedDate] {
		return
	}
	for i := range mappings {
		if mappings[i].TargetField == FieldPostedDate {
			mappings[i].TargetField = FieldTransactionDate
			return
		}
	}
}
