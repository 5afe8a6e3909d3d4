// Package sniffer detects the layout of raw CSV/TSV statement exports:
// delimiter, header row position, and a normalized header fingerprint used
// to recall previously confirmed column mappings for the same bank format.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Header keywords that identify the column-name row of a statement export.
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit", "balance",
	"withdrawal", "deposit", "memo", "payee", "merchant", "account",
	"reference", "check", "category", "type",
}

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
)

const (
	maxHeaderSearchLines = 20
	rawLineCount         = 10
	sampleRowCount       = 5
)

// Layout holds the detected configuration of a statement export.
type Layout struct {
	Delimiter   rune       // field delimiter (',', ';', '\t', '|')
	SkipLines   int        // metadata lines before the header row
	Headers     []string   // trimmed header names
	Fingerprint string     // SHA-256 of normalized headers
	RawLines    []string   // leading raw text lines, for account identity scans
	SampleRows  [][]string // first data rows, for preview and format detection
}

// DetectLayout analyzes raw statement bytes and returns the file layout.
func DetectLayout(data []byte) (*Layout, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")

	delimiter, skipLines, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(lines[skipLines]))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rawLines := lines
	if len(rawLines) > rawLineCount {
		rawLines = rawLines[:rawLineCount]
	}

	return &Layout{
		Delimiter:   delimiter,
		SkipLines:   skipLines,
		Headers:     headers,
		Fingerprint: Fingerprint(headers),
		RawLines:    rawLines,
		SampleRows:  sampleRows(data, delimiter, skipLines+1, sampleRowCount),
	}, nil
}

// Fingerprint creates a stable hash from header names: lowercase letters
// and digits only, joined and hashed, so cosmetic differences in casing or
// punctuation do not defeat template recall.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

// findHeaderRow locates the header row and its delimiter.
func findHeaderRow(lines []string) (rune, int, error) {
	delimiters := []rune{';', '\t', ',', '|'}

	for i, line := range lines {
		if i > maxHeaderSearchLines {
			break
		}

		lineLower := strings.ToLower(line)
		hasKeyword := false
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}

		for _, d := range delimiters {
			if strings.Count(line, string(d)) >= 2 { // at least 3 columns
				return d, i, nil
			}
		}
	}

	return 0, 0, ErrNoHeadersFound
}

// sampleRows returns the first N data rows after the header.
func sampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if lineNum >= startLine {
			rows = append(rows, record)
			if len(rows) >= maxRows {
				break
			}
		}
		lineNum++
	}
	return rows
}
