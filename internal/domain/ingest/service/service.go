// Package service provides the ingestion orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/common"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/accounts"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/normalizer"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/repository"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/sniffer"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/transfers"
)

// dateSampleCount caps how many values feed date-format detection.
const dateSampleCount = 5

// AnalyzeInput carries one parsed statement file: its headers, data rows
// keyed by header, and the raw leading lines for account identity scanning.
type AnalyzeInput struct {
	FileName string              `json:"fileName"`
	Headers  []string            `json:"headers"`
	Rows     []map[string]string `json:"rows"`
	RawLines []string            `json:"rawLines,omitempty"`
}

// AnalyzeResult is everything the review screen needs to present a file:
// suggested mappings, detected accounts, bank matches, and transfer pairs.
type AnalyzeResult struct {
	Fingerprint string                      `json:"fingerprint"`
	Mappings    []mapping.ColumnMapping     `json:"mappings"`
	Validation  mapping.ValidationResult    `json:"validation"`
	DateFormat  string                      `json:"dateFormat"`
	FileAccount accounts.ScanResult         `json:"fileAccount"`
	Accounts    []accounts.Info             `json:"accounts,omitempty"`
	Matches     []accounts.BankMatch        `json:"matches,omitempty"`
	Transfers   []transfers.Candidate       `json:"transfers,omitempty"`
	Template    *repository.MappingTemplate `json:"template,omitempty"`
}

// NormalizeInput carries the rows and the reviewer-confirmed mapping set.
type NormalizeInput struct {
	FileName   string                  `json:"fileName"`
	Rows       []map[string]string     `json:"rows"`
	Mappings   []mapping.ColumnMapping `json:"mappings"`
	DateFormat string                  `json:"dateFormat,omitempty"`
}

// Transaction is one normalized row ready for booking.
type Transaction struct {
	RowIndex        int        `json:"rowIndex"`
	Date            time.Time  `json:"date"`
	PostedDate      *time.Time `json:"postedDate,omitempty"`
	Description     string     `json:"description"`
	Amount          float64    `json:"amount"`
	Balance         *float64   `json:"balance,omitempty"`
	Category        string     `json:"category,omitempty"`
	CheckNumber     string     `json:"checkNumber,omitempty"`
	ReferenceNumber string     `json:"referenceNumber,omitempty"`
	SourceAccount   string     `json:"sourceAccount,omitempty"`
}

// FlaggedRow marks a row that could not be normalized. Flagged rows are
// reported for review, never silently defaulted.
type FlaggedRow struct {
	RowIndex int    `json:"rowIndex"`
	Reason   string `json:"reason"`
}

// NormalizeResult is the outcome of one normalization run.
type NormalizeResult struct {
	BatchID      uuid.UUID     `json:"batchId"`
	Transactions []Transaction `json:"transactions"`
	Flagged      []FlaggedRow  `json:"flagged,omitempty"`
}

// ConfirmMappingInput persists a reviewed mapping set for a header format.
type ConfirmMappingInput struct {
	Fingerprint string                  `json:"fingerprint"`
	BankName    string                  `json:"bankName,omitempty"`
	DateFormat  string                  `json:"dateFormat,omitempty"`
	Mappings    []mapping.ColumnMapping `json:"mappings"`
}

// IngestService orchestrates analysis and normalization of statement files.
type IngestService struct {
	repo   repository.IngestRepository
	logger *slog.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(repo repository.IngestRepository, logger *slog.Logger) *IngestService {
	return &IngestService{
		repo:   repo,
		logger: logger,
	}
}

// Analyze inspects a parsed statement file and assembles the review payload:
// suggested (or recalled) column mappings, the file-level account identity,
// per-account row groups with bank matches, and transfer-pair candidates.
func (s *IngestService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeResult, error) {
	fingerprint := ""
	var template *repository.MappingTemplate
	if len(input.Headers) > 0 {
		fingerprint = sniffer.Fingerprint(input.Headers)

		var err error
		template, err = s.repo.GetMappingTemplate(ctx, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup mapping template: %w", err)
		}
	}

	mappings := mapping.Suggest(input.Headers)
	dateFormat := s.detectDateFormat(mappings, input.Rows)
	if template != nil {
		mappings = template.Mappings
		if template.DateFormat != "" {
			dateFormat = template.DateFormat
		}
	}

	result := &AnalyzeResult{
		Fingerprint: fingerprint,
		Mappings:    mappings,
		Validation:  mapping.Validate(mappings),
		DateFormat:  dateFormat,
		FileAccount: accounts.ScanFile(input.RawLines, input.FileName),
		Template:    template,
	}

	sourceCol := columnFor(mappings, mapping.FieldSourceAccount)
	if sourceCol == "" {
		return result, nil
	}

	result.Accounts = accounts.ExtractUniqueAccounts(input.Rows, sourceCol)
	if len(result.Accounts) > 0 {
		banks, err := s.knownBanks(ctx)
		if err != nil {
			return nil, err
		}
		result.Matches = make([]accounts.BankMatch, 0, len(result.Accounts))
		for _, info := range result.Accounts {
			result.Matches = append(result.Matches, accounts.Match(info, banks))
		}
	}

	result.Transfers = transfers.Detect(input.Rows, transfers.Columns{
		SourceAccount: sourceCol,
		Date:          dateColumn(mappings),
		Amount:        columnFor(mappings, mapping.FieldAmount),
		Debit:         columnFor(mappings, mapping.FieldDebitAmount),
		Credit:        columnFor(mappings, mapping.FieldCreditAmount),
	})

	return result, nil
}

// ValidateMapping checks a mapping set without persisting anything.
func (s *IngestService) ValidateMapping(mappings []mapping.ColumnMapping) mapping.ValidationResult {
	return mapping.Validate(mappings)
}

// ConfirmMapping validates a reviewed mapping set and, when valid, saves it
// as the template for its header fingerprint so repeat uploads skip review.
func (s *IngestService) ConfirmMapping(ctx context.Context, input ConfirmMappingInput) (mapping.ValidationResult, error) {
	validation := mapping.Validate(input.Mappings)
	if !validation.Valid {
		return validation, common.ErrInvalidMapping
	}
	if input.Fingerprint == "" {
		return validation, fmt.Errorf("confirm mapping: %w: fingerprint is required", common.ErrBadRequest)
	}

	var bankName *string
	if input.BankName != "" {
		bankName = &input.BankName
	}

	template := &repository.MappingTemplate{
		Fingerprint: input.Fingerprint,
		BankName:    bankName,
		Mappings:    input.Mappings,
		DateFormat:  input.DateFormat,
	}
	if err := s.repo.SaveMappingTemplate(ctx, template); err != nil {
		return validation, fmt.Errorf("failed to save mapping template: %w", err)
	}

	s.logger.Info("mapping template saved",
		"fingerprint", input.Fingerprint,
		"columns", len(input.Mappings),
	)
	return validation, nil
}

// Normalize converts rows into transactions using a confirmed mapping set.
// Rows whose date, description, or amount cannot be resolved are flagged
// with a reason and excluded from the output; the run is recorded as an
// import batch either way.
func (s *IngestService) Normalize(ctx context.Context, input NormalizeInput) (*NormalizeResult, error) {
	validation := mapping.Validate(input.Mappings)
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidMapping, strings.Join(validation.Errors, "; "))
	}

	batch := &repository.ImportBatch{
		FileName:  input.FileName,
		Status:    "running",
		RowsTotal: len(input.Rows),
	}
	if err := s.repo.CreateImportBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	cols := resolvedColumns(input.Mappings)
	result := &NormalizeResult{BatchID: batch.ID}

	for i, row := range input.Rows {
		tx, reason := s.normalizeRow(i, row, cols, input.DateFormat)
		if reason != "" {
			result.Flagged = append(result.Flagged, FlaggedRow{RowIndex: i, Reason: reason})
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	if err := s.repo.FinishImportBatch(ctx, batch.ID, "succeeded", len(result.Transactions), len(result.Flagged)); err != nil {
		s.logger.Warn("failed to finish import batch", "error", err, "batch_id", batch.ID)
	}

	s.logger.Info("normalization run complete",
		"batch_id", batch.ID,
		"rows_total", len(input.Rows),
		"rows_normalized", len(result.Transactions),
		"rows_flagged", len(result.Flagged),
	)
	return result, nil
}

// columns holds the source column name per canonical field, resolved once
// per normalization run.
type columns struct {
	date          string
	postedDate    string
	description   string
	amount        string
	debit         string
	credit        string
	balance       string
	category      string
	check         string
	reference     string
	sourceAccount string
}

func resolvedColumns(mappings []mapping.ColumnMapping) columns {
	return columns{
		date:          columnFor(mappings, mapping.FieldTransactionDate),
		postedDate:    columnFor(mappings, mapping.FieldPostedDate),
		description:   columnFor(mappings, mapping.FieldDescription),
		amount:        columnFor(mappings, mapping.FieldAmount),
		debit:         columnFor(mappings, mapping.FieldDebitAmount),
		credit:        columnFor(mappings, mapping.FieldCreditAmount),
		balance:       columnFor(mappings, mapping.FieldBalance),
		category:      columnFor(mappings, mapping.FieldCategory),
		check:         columnFor(mappings, mapping.FieldCheckNumber),
		reference:     columnFor(mappings, mapping.FieldReferenceNumber),
		sourceAccount: columnFor(mappings, mapping.FieldSourceAccount),
	}
}

func (s *IngestService) normalizeRow(index int, row map[string]string, cols columns, dateFormat string) (*Transaction, string) {
	dateRaw := row[cols.date]
	if cols.date == "" {
		dateRaw = row[cols.postedDate]
	}
	date, err := normalizer.ParseFlexibleDate(dateRaw, dateFormat, time.UTC)
	if err != nil {
		if errors.Is(err, normalizer.ErrInvalidDate) {
			return nil, fmt.Sprintf("invalid date %q", strings.TrimSpace(dateRaw))
		}
		return nil, fmt.Sprintf("invalid date %q: %v", strings.TrimSpace(dateRaw), err)
	}

	description := normalizer.CleanDescription(row[cols.description])
	if description == "" {
		return nil, "empty description"
	}

	var amountRaw, debitRaw, creditRaw string
	if cols.amount != "" {
		amountRaw = row[cols.amount]
	}
	if cols.debit != "" {
		debitRaw = row[cols.debit]
	}
	if cols.credit != "" {
		creditRaw = row[cols.credit]
	}
	amount, ok := normalizer.ParseAmount(amountRaw, debitRaw, creditRaw)
	if !ok {
		return nil, "unparsable amount"
	}

	tx := &Transaction{
		RowIndex:        index,
		Date:            date,
		Description:     description,
		Amount:          amount,
		Category:        normalizer.CleanDescription(row[cols.category]),
		CheckNumber:     strings.TrimSpace(row[cols.check]),
		ReferenceNumber: strings.TrimSpace(row[cols.reference]),
		SourceAccount:   strings.TrimSpace(row[cols.sourceAccount]),
	}

	if cols.postedDate != "" && cols.date != "" {
		if posted, err := normalizer.ParseFlexibleDate(row[cols.postedDate], dateFormat, time.UTC); err == nil {
			tx.PostedDate = &posted
		}
	}
	if cols.balance != "" {
		if balance, ok := normalizer.ParseSingle(row[cols.balance]); ok {
			tx.Balance = &balance
		}
	}

	return tx, ""
}

// detectDateFormat samples the mapped date column to guess the user-facing
// date format for the review screen.
func (s *IngestService) detectDateFormat(mappings []mapping.ColumnMapping, rows []map[string]string) string {
	dateCol := dateColumn(mappings)
	if dateCol == "" {
		return normalizer.DetectDateFormat(nil)
	}

	samples := make([]string, 0, dateSampleCount)
	for _, row := range rows {
		if v := strings.TrimSpace(row[dateCol]); v != "" {
			samples = append(samples, v)
			if len(samples) >= dateSampleCount {
				break
			}
		}
	}
	return normalizer.DetectDateFormat(samples)
}

// knownBanks loads the connected banks and converts them to the matcher's
// input shape.
func (s *IngestService) knownBanks(ctx context.Context) ([]accounts.KnownBank, error) {
	stored, err := s.repo.ListKnownBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list known banks: %w", err)
	}

	banks := make([]accounts.KnownBank, 0, len(stored))
	for _, b := range stored {
		bank := accounts.KnownBank{ID: b.ID.String(), Name: b.Name}
		for _, balance := range b.Balances {
			bank.Balances = append(bank.Balances, accounts.BankBalance{
				Mask: balance.Mask,
				Type: balance.Type,
			})
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

func columnFor(mappings []mapping.ColumnMapping, field mapping.Field) string {
	for _, m := range mappings {
		if m.TargetField == field {
			return m.SourceColumn
		}
	}
	return ""
}

// dateColumn prefers the transaction date and falls back to the posted date.
func dateColumn(mappings []mapping.ColumnMapping) string {
	if col := columnFor(mappings, mapping.FieldTransactionDate); col != "" {
		return col
	}
	return columnFor(mappings, mapping.FieldPostedDate)
}
