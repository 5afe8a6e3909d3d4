package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
)

func sampleTime() time.Time {
	return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

func TestPostgresIngestRepository_ListKnownBanks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	bankID := uuid.New()
	balanceA := uuid.New()
	balanceB := uuid.New()
	otherBankID := uuid.New()

	rows := pgxmock.NewRows([]string{"id", "name", "created_at", "balance_id", "mask", "account_type"}).
		AddRow(bankID, "Chase Business Checking", sampleTime(), &balanceA, "1234", "checking").
		AddRow(bankID, "Chase Business Checking", sampleTime(), &balanceB, "5678", "savings").
		AddRow(otherBankID, "Mercury", sampleTime(), (*uuid.UUID)(nil), "", "")

	mock.ExpectQuery(regexp.QuoteMeta(listKnownBanksQuery)).WillReturnRows(rows)

	repo := NewPostgresIngestRepository(mock)
	banks, err := repo.ListKnownBanks(context.Background())
	if err != nil {
		t.Fatalf("ListKnownBanks: %v", err)
	}

	if len(banks) != 2 {
		t.Fatalf("expected 2 banks, got %d", len(banks))
	}
	if banks[0].ID != bankID || len(banks[0].Balances) != 2 {
		t.Fatalf("first bank not aggregated: %+v", banks[0])
	}
	if banks[0].Balances[0].Mask != "1234" || banks[0].Balances[1].Type != "savings" {
		t.Fatalf("balances not scanned: %+v", banks[0].Balances)
	}
	if len(banks[1].Balances) != 0 {
		t.Fatalf("bank without balances should have none, got %+v", banks[1].Balances)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresIngestRepository_GetMappingTemplate_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getMappingTemplateQuery)).
		WithArgs("missing-fingerprint").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "fingerprint", "bank_name", "mappings", "date_format", "created_at", "updated_at",
		}))

	repo := NewPostgresIngestRepository(mock)
	template, err := repo.GetMappingTemplate(context.Background(), "missing-fingerprint")
	if err != nil {
		t.Fatalf("GetMappingTemplate: %v", err)
	}
	if template != nil {
		t.Fatalf("expected nil template for unknown fingerprint, got %+v", template)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresIngestRepository_GetMappingTemplate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mappings := []mapping.ColumnMapping{
		{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate, Confidence: mapping.ConfidenceHigh},
		{SourceColumn: "Description", TargetField: mapping.FieldDescription, Confidence: mapping.ConfidenceHigh},
	}
	mappingsJSON, _ := json.Marshal(mappings)

	templateID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(getMappingTemplateQuery)).
		WithArgs("fp-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "fingerprint", "bank_name", "mappings", "date_format", "created_at", "updated_at",
		}).AddRow(templateID, "fp-1", (*string)(nil), mappingsJSON, "MM/DD/YYYY", sampleTime(), sampleTime()))

	repo := NewPostgresIngestRepository(mock)
	template, err := repo.GetMappingTemplate(context.Background(), "fp-1")
	if err != nil {
		t.Fatalf("GetMappingTemplate: %v", err)
	}
	if template == nil || template.ID != templateID {
		t.Fatalf("unexpected template: %+v", template)
	}
	if len(template.Mappings) != 2 || template.Mappings[0].TargetField != mapping.FieldTransactionDate {
		t.Fatalf("mappings not decoded: %+v", template.Mappings)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresIngestRepository_SaveMappingTemplate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(saveMappingTemplateQuery)).
		WithArgs(pgxmock.AnyArg(), "fp-1", (*string)(nil), pgxmock.AnyArg(), "MM/DD/YYYY").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresIngestRepository(mock)
	template := &MappingTemplate{
		Fingerprint: "fp-1",
		DateFormat:  "MM/DD/YYYY",
		Mappings: []mapping.ColumnMapping{
			{SourceColumn: "Date", TargetField: mapping.FieldTransactionDate, Confidence: mapping.ConfidenceHigh},
		},
	}
	if err := repo.SaveMappingTemplate(context.Background(), template); err != nil {
		t.Fatalf("SaveMappingTemplate: %v", err)
	}
	if template.ID == uuid.Nil {
		t.Fatal("expected an ID to be assigned")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresIngestRepository_ImportBatchLifecycle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	batch := &ImportBatch{FileName: "statement.csv", Status: "running", RowsTotal: 42}

	mock.ExpectExec(regexp.QuoteMeta(createImportBatchQuery)).
		WithArgs(pgxmock.AnyArg(), "statement.csv", "running", 42).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresIngestRepository(mock)
	if err := repo.CreateImportBatch(context.Background(), batch); err != nil {
		t.Fatalf("CreateImportBatch: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(finishImportBatchQuery)).
		WithArgs(batch.ID, "succeeded", 40, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.FinishImportBatch(context.Background(), batch.ID, "succeeded", 40, 2); err != nil {
		t.Fatalf("FinishImportBatch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
