package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresIngestRepository implements IngestRepository using PostgreSQL.
type PostgresIngestRepository struct {
	pgpool PgxPool
}

// NewPostgresIngestRepository creates a new PostgreSQL-backed ingest repository.
func NewPostgresIngestRepository(pgpool PgxPool) *PostgresIngestRepository {
	return &PostgresIngestRepository{pgpool: pgpool}
}

const listKnownBanksQuery = `
	SELECT b.id, b.name, b.created_at,
	       bb.id, COALESCE(bb.mask, ''), COALESCE(bb.account_type, '')
	FROM known_banks b
	LEFT JOIN bank_balances bb ON bb.bank_id = b.id
	ORDER BY b.created_at, b.id, bb.id
`

// ListKnownBanks returns every connected bank with its registered balances.
func (r *PostgresIngestRepository) ListKnownBanks(ctx context.Context) ([]*KnownBank, error) {
	rows, err := r.pgpool.Query(ctx, listKnownBanksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list known banks: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*KnownBank)
	var banks []*KnownBank
	for rows.Next() {
		var bank KnownBank
		var balanceID *uuid.UUID
		var mask, accountType string
		if err := rows.Scan(&bank.ID, &bank.Name, &bank.CreatedAt, &balanceID, &mask, &accountType); err != nil {
			return nil, fmt.Errorf("failed to scan known bank: %w", err)
		}

		existing, ok := byID[bank.ID]
		if !ok {
			existing = &bank
			byID[bank.ID] = existing
			banks = append(banks, existing)
		}
		if balanceID != nil {
			existing.Balances = append(existing.Balances, BankBalance{
				ID:     *balanceID,
				BankID: existing.ID,
				Mask:   mask,
				Type:   accountType,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read known banks: %w", err)
	}

	return banks, nil
}

const getMappingTemplateQuery = `
	SELECT id, fingerprint, bank_name, mappings, date_format, created_at, updated_at
	FROM mapping_templates
	WHERE fingerprint = $1
`

// GetMappingTemplate looks up a confirmed mapping set by header fingerprint.
// Returns nil when no template has been saved for the format.
func (r *PostgresIngestRepository) GetMappingTemplate(ctx context.Context, fingerprint string) (*MappingTemplate, error) {
	var template MappingTemplate
	var mappingsJSON []byte
	err := r.pgpool.QueryRow(ctx, getMappingTemplateQuery, fingerprint).Scan(
		&template.ID, &template.Fingerprint, &template.BankName,
		&mappingsJSON, &template.DateFormat, &template.CreatedAt, &template.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping template: %w", err)
	}

	if err := json.Unmarshal(mappingsJSON, &template.Mappings); err != nil {
		return nil, fmt.Errorf("failed to decode mapping template columns: %w", err)
	}

	return &template, nil
}

const saveMappingTemplateQuery = `
	INSERT INTO mapping_templates (id, fingerprint, bank_name, mappings, date_format)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (fingerprint) DO UPDATE SET
		bank_name = EXCLUDED.bank_name,
		mappings = EXCLUDED.mappings,
		date_format = EXCLUDED.date_format,
		updated_at = NOW()
`

// SaveMappingTemplate inserts or refreshes the template for a fingerprint.
func (r *PostgresIngestRepository) SaveMappingTemplate(ctx context.Context, template *MappingTemplate) error {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	if template.Mappings == nil {
		template.Mappings = []mapping.ColumnMapping{}
	}

	mappingsJSON, err := json.Marshal(template.Mappings)
	if err != nil {
		return fmt.Errorf("failed to encode mapping template columns: %w", err)
	}

	_, err = r.pgpool.Exec(ctx, saveMappingTemplateQuery,
		template.ID, template.Fingerprint, template.BankName, mappingsJSON, template.DateFormat,
	)
	if err != nil {
		return fmt.Errorf("failed to save mapping template: %w", err)
	}

	return nil
}

const createImportBatchQuery = `
	INSERT INTO import_batches (id, file_name, status, rows_total)
	VALUES ($1, $2, $3, $4)
`

// CreateImportBatch records the start of a normalization run.
func (r *PostgresIngestRepository) CreateImportBatch(ctx context.Context, batch *ImportBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}

	_, err := r.pgpool.Exec(ctx, createImportBatchQuery,
		batch.ID, batch.FileName, batch.Status, batch.RowsTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}

	return nil
}

const finishImportBatchQuery = `
	UPDATE import_batches SET
		status = $2, rows_normalized = $3, rows_flagged = $4, finished_at = NOW()
	WHERE id = $1
`

// FinishImportBatch marks a batch complete with its final counts.
func (r *PostgresIngestRepository) FinishImportBatch(ctx context.Context, id uuid.UUID, status string, rowsNormalized, rowsFlagged int) error {
	_, err := r.pgpool.Exec(ctx, finishImportBatchQuery, id, status, rowsNormalized, rowsFlagged)
	if err != nil {
		return fmt.Errorf("failed to finish import batch: %w", err)
	}
	return nil
}
