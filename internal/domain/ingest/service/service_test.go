package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/common"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/accounts"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/repository"
)

type fakeRepo struct {
	banks    []*repository.KnownBank
	template *repository.MappingTemplate

	savedTemplate  *repository.MappingTemplate
	createdBatch   *repository.ImportBatch
	finishedStatus string
	rowsNormalized int
	rowsFlagged    int
}

func (f *fakeRepo) ListKnownBanks(ctx context.Context) ([]*repository.KnownBank, error) {
	return f.banks, nil
}

func (f *fakeRepo) GetMappingTemplate(ctx context.Context, fingerprint string) (*repository.MappingTemplate, error) {
	return f.template, nil
}

func (f *fakeRepo) SaveMappingTemplate(ctx context.Context, template *repository.MappingTemplate) error {
	f.savedTemplate = template
	return nil
}

func (f *fakeRepo) CreateImportBatch(ctx context.Context, batch *repository.ImportBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	f.createdBatch = batch
	return nil
}

func (f *fakeRepo) FinishImportBatch(ctx context.Context, id uuid.UUID, status string, rowsNormalized, rowsFlagged int) error {
	f.finishedStatus = status
	f.rowsNormalized = rowsNormalized
	f.rowsFlagged = rowsFlagged
	return nil
}

func newTestService(repo repository.IngestRepository) *IngestService {
	return NewIngestService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAnalyze_SuggestsMatchesAndDetectsTransfers(t *testing.T) {
	bankID := uuid.New()
	repo := &fakeRepo{
		banks: []*repository.KnownBank{
			{
				ID:   bankID,
				Name: "Chase Business Checking",
				Balances: []repository.BankBalance{
					{Mask: "1234", Type: "checking"},
				},
			},
		},
	}
	svc := newTestService(repo)

	input := AnalyzeInput{
		FileName: "chase_statement.csv",
		Headers:  []string{"Date", "Description", "Amount", "Account"},
		Rows: []map[string]string{
			{"Date": "01/15/2024", "Description": "TRANSFER TO SAVINGS", "Amount": "-500.00", "Account": "Chase Checking ****1234"},
			{"Date": "01/15/2024", "Description": "TRANSFER FROM CHECKING", "Amount": "500.00", "Account": "Business Savings ...5678"},
			{"Date": "01/16/2024", "Description": "SYSCO FOODS", "Amount": "(210.40)", "Account": "Chase Checking ****1234"},
		},
		RawLines: []string{"Chase Business Checking ****1234"},
	}

	result, err := svc.Analyze(context.Background(), input)
	require.NoError(t, err)

	require.NotEmpty(t, result.Fingerprint)
	require.True(t, result.Validation.Valid)
	require.Equal(t, "MM/DD/YYYY", result.DateFormat)
	require.Nil(t, result.Template)

	byColumn := make(map[string]mapping.Field)
	for _, m := range result.Mappings {
		byColumn[m.SourceColumn] = m.TargetField
	}
	require.Equal(t, mapping.FieldTransactionDate, byColumn["Date"])
	require.Equal(t, mapping.FieldDescription, byColumn["Description"])
	require.Equal(t, mapping.FieldAmount, byColumn["Amount"])
	require.Equal(t, mapping.FieldSourceAccount, byColumn["Account"])

	require.Equal(t, "1234", result.FileAccount.AccountMask)
	require.Equal(t, "Chase", result.FileAccount.InstitutionName)

	require.Len(t, result.Accounts, 2)
	require.Equal(t, []int{0, 2}, result.Accounts[0].RowIndices)
	require.Equal(t, []int{1}, result.Accounts[1].RowIndices)

	require.Len(t, result.Matches, 2)
	require.Equal(t, bankID.String(), result.Matches[0].BankID)
	require.Equal(t, accounts.MatchHigh, result.Matches[0].Confidence)
	require.Empty(t, result.Matches[1].BankID)
	require.Equal(t, accounts.MatchNone, result.Matches[1].Confidence)

	require.Len(t, result.Transfers, 1)
	require.Equal(t, 0, result.Transfers[0].DebitRowIndex)
	require.Equal(t, 1, result.Transfers[0].CreditRowIndex)
	require.InDelta(t, 500.0, result.Transfers[0].Amount, 0.001)
}

func TestAnalyze_RecallsStoredTemplate(t *testing.T) {
	stored := &repository.MappingTemplate{
		ID:          uuid.New(),
		Fingerprint: "fp",
		DateFormat:  "DD/MM/YYYY",
		Mappings: []mapping.ColumnMapping{
			{SourceColumn: "Datum", TargetField: mapping.FieldTransactionDate, Confidence: mapping.ConfidenceHigh},
			{SourceColumn: "Omschrijving", TargetField: mapping.FieldDescription, Confidence: mapping.ConfidenceHigh},
			{SourceColumn: "Bedrag", TargetField: mapping.FieldAmount, Confidence: mapping.ConfidenceHigh},
		},
	}
	svc := newTestService(&fakeRepo{template: stored})

	result, err := svc.Analyze(context.Background(), AnalyzeInput{
		Headers: []string{"Datum", "Omschrijving", "Bedrag"},
	})
	require.NoError(t, err)

	require.NotNil(t, result.Template)
	require.Equal(t, stored.Mappings, result.Mappings)
	require.Equal(t, "DD/MM/YYYY", result.DateFormat)
	require.True(t, result.Validation.Valid)
}

func TestConfirmMapping_RejectsInvalidSet(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	validation, err := svc.ConfirmMapping(context.Background(), ConfirmMappingInput{
		Fingerprint: "fp",
		Mappings: []mapping.ColumnMapping{
			{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate},
		},
	})
	require.ErrorIs(t, err, common.ErrInvalidMapping)
	require.False(t, validation.Valid)
	require.Nil(t, repo.savedTemplate)
}

func TestConfirmMapping_SavesTemplate(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	input := ConfirmMappingInput{
		Fingerprint: "fp",
		BankName:    "Chase",
		DateFormat:  "MM/DD/YYYY",
		Mappings: []mapping.ColumnMapping{
			{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate},
			{SourceColumn: "Description", TargetField: mapping.FieldDescription},
			{SourceColumn: "Amount", TargetField: mapping.FieldAmount},
		},
	}
	validation, err := svc.ConfirmMapping(context.Background(), input)
	require.NoError(t, err)
	require.True(t, validation.Valid)

	require.NotNil(t, repo.savedTemplate)
	require.Equal(t, "fp", repo.savedTemplate.Fingerprint)
	require.NotNil(t, repo.savedTemplate.BankName)
	require.Equal(t, "Chase", *repo.savedTemplate.BankName)
	require.Equal(t, input.Mappings, repo.savedTemplate.Mappings)
}

func TestNormalize_FlagsUnusableRows(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	mappings := []mapping.ColumnMapping{
		{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate},
		{SourceColumn: "Description", TargetField: mapping.FieldDescription},
		{SourceColumn: "Amount", TargetField: mapping.FieldAmount},
		{SourceColumn: "Balance", TargetField: mapping.FieldBalance},
	}
	rows := []map[string]string{
		{"Date": "01/15/2024", "Description": "  Toast   Payout ", "Amount": "$1,234.56", "Balance": "5,000.00"},
		{"Date": "not-a-date", "Description": "Bad date", "Amount": "10.00"},
		{"Date": "01/16/2024", "Description": "   ", "Amount": "10.00"},
		{"Date": "01/17/2024", "Description": "No amount", "Amount": "n/a"},
		{"Date": "01/18/2024", "Description": "Sysco", "Amount": "(210.40)"},
	}

	result, err := svc.Normalize(context.Background(), NormalizeInput{
		FileName:   "statement.csv",
		Rows:       rows,
		Mappings:   mappings,
		DateFormat: "MM/DD/YYYY",
	})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	first := result.Transactions[0]
	require.Equal(t, 0, first.RowIndex)
	require.Equal(t, "Toast Payout", first.Description)
	require.InDelta(t, 1234.56, first.Amount, 0.001)
	require.NotNil(t, first.Balance)
	require.InDelta(t, 5000.0, *first.Balance, 0.001)
	require.InDelta(t, -210.40, result.Transactions[1].Amount, 0.001)

	require.Len(t, result.Flagged, 3)
	require.Equal(t, 1, result.Flagged[0].RowIndex)
	require.Contains(t, result.Flagged[0].Reason, "invalid date")
	require.Equal(t, "empty description", result.Flagged[1].Reason)
	require.Equal(t, "unparsable amount", result.Flagged[2].Reason)

	require.NotNil(t, repo.createdBatch)
	require.Equal(t, result.BatchID, repo.createdBatch.ID)
	require.Equal(t, 5, repo.createdBatch.RowsTotal)
	require.Equal(t, "succeeded", repo.finishedStatus)
	require.Equal(t, 2, repo.rowsNormalized)
	require.Equal(t, 3, repo.rowsFlagged)
}

func TestNormalize_RejectsInvalidMapping(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	_, err := svc.Normalize(context.Background(), NormalizeInput{
		FileName: "statement.csv",
		Mappings: []mapping.ColumnMapping{
			{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate},
		},
	})
	require.ErrorIs(t, err, common.ErrInvalidMapping)
	require.Nil(t, repo.createdBatch)
}

func TestNormalize_DebitCreditColumns(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	mappings := []mapping.ColumnMapping{
		{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate},
		{SourceColumn: "Description", TargetField: mapping.FieldDescription},
		{SourceColumn: "Withdrawal", TargetField: mapping.FieldDebitAmount},
		{SourceColumn: "Deposit", TargetField: mapping.FieldCreditAmount},
	}
	rows := []map[string]string{
		{"Date": "01/15/2024", "Description": "US Foods", "Withdrawal": "321.50", "Deposit": ""},
		{"Date": "01/16/2024", "Description": "Payout", "Withdrawal": "", "Deposit": "980.00"},
	}

	result, err := svc.Normalize(context.Background(), NormalizeInput{
		FileName: "statement.csv",
		Rows:     rows,
		Mappings: mappings,
	})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	require.InDelta(t, -321.50, result.Transactions[0].Amount, 0.001)
	require.InDelta(t, 980.00, result.Transactions[1].Amount, 0.001)
	require.Empty(t, result.Flagged)
}
