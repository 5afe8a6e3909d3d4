// Package repository provides data access for ingestion-related entities:
// known bank accounts, confirmed mapping templates, and import batches.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
)

// KnownBank is a connected bank account the matcher scores against.
type KnownBank struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	Balances  []BankBalance
}

// BankBalance is one registered balance on a known bank.
type BankBalance struct {
	ID     uuid.UUID `db:"id"`
	BankID uuid.UUID `db:"bank_id"`
	Mask   string    `db:"mask"`         // empty when unknown
	Type   string    `db:"account_type"` // empty when unknown
}

// MappingTemplate is a confirmed column mapping set keyed by the header
// fingerprint, so repeat uploads of the same bank format skip review.
type MappingTemplate struct {
	ID          uuid.UUID               `db:"id"`
	Fingerprint string                  `db:"fingerprint"`
	BankName    *string                 `db:"bank_name"`
	Mappings    []mapping.ColumnMapping `db:"mappings"`
	DateFormat  string                  `db:"date_format"`
	CreatedAt   time.Time               `db:"created_at"`
	UpdatedAt   time.Time               `db:"updated_at"`
}

// ImportBatch tracks one analyze/normalize run.
type ImportBatch struct {
	ID             uuid.UUID  `db:"id"`
	FileName       string     `db:"file_name"`
	Status         string     `db:"status"` // "running", "succeeded", "failed"
	RowsTotal      int        `db:"rows_total"`
	RowsNormalized int        `db:"rows_normalized"`
	RowsFlagged    int        `db:"rows_flagged"`
	RequestedAt    time.Time  `db:"requested_at"`
	FinishedAt     *time.Time `db:"finished_at"`
}

// IngestRepository defines data access operations for ingestion.
type IngestRepository interface {
	// Known banks
	ListKnownBanks(ctx context.Context) ([]*KnownBank, error)

	// Mapping templates
	GetMappingTemplate(ctx context.Context, fingerprint string) (*MappingTemplate, error)
	SaveMappingTemplate(ctx context.Context, template *MappingTemplate) error

	// Import batches
	CreateImportBatch(ctx context.Context, batch *ImportBatch) error
	FinishImportBatch(ctx context.Context, id uuid.UUID, status string, rowsNormalized, rowsFlagged int) error
}
