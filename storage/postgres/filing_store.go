package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	form4 "github.com/tickerlabs/go-form4"
)

// FilingStore implements form4.FilingStore using PostgreSQL. Transaction
// rows carry a unique fingerprint index; duplicates are discarded with
// ON CONFLICT DO NOTHING so reprocessing a filing is idempotent.
type FilingStore struct {
	pool *Pool
}

// NewFilingStore creates a new FilingStore.
func NewFilingStore(pool *Pool) *FilingStore {
	return &FilingStore{pool: pool}
}

// Compile-time interface check.
var _ form4.FilingStore = (*FilingStore)(nil)

// UpsertFiling inserts the filing header and its transaction rows in one
// database transaction. The header upsert is last-write-wins (amended
// filings replace it); transaction rows dedup on fingerprint.
func (s *FilingStore) UpsertFiling(ctx context.Context, f *form4.Filing) (form4.UpsertResult, error) {
	if f == nil || f.AccessionNumber == "" {
		return form4.UpsertResult{}, form4.ErrInvalidInput
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return form4.UpsertResult{}, fmt.Errorf("marshal filing: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return form4.UpsertResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	headerQuery := `
		INSERT INTO filings (
			accession_number, schema_version, document_type, period_of_report, has_10b51_plan, payload
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (accession_number) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			document_type = EXCLUDED.document_type,
			period_of_report = EXCLUDED.period_of_report,
			has_10b51_plan = EXCLUDED.has_10b51_plan,
			payload = EXCLUDED.payload,
			updated_at = now()
	`
	if _, err := tx.Exec(ctx, headerQuery,
		f.AccessionNumber,
		f.SchemaVersion,
		f.DocumentType,
		f.PeriodOfReport,
		f.Has10b51Plan,
		payload,
	); err != nil {
		return form4.UpsertResult{}, fmt.Errorf("upsert filing header: %w", err)
	}

	rowQuery := `
		INSERT INTO filing_transactions (
			fingerprint, accession_number, owner_cik, security_title,
			transaction_date, transaction_code, acquired_disposed,
			shares, price_per_share, shares_owned_following,
			derivative, category, tier, needs_review
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (fingerprint) DO NOTHING
	`

	var result form4.UpsertResult
	for _, t := range f.Transactions {
		fp := form4.Fingerprint(f.AccessionNumber, t)
		cmd, err := tx.Exec(ctx, rowQuery,
			fp,
			f.AccessionNumber,
			t.OwnerCIK,
			t.SecurityTitle,
			t.TransactionDate,
			t.Code,
			t.AcquiredDisposed,
			t.Shares,
			t.Price,
			t.SharesOwnedFollowing,
			t.Derivative,
			string(t.Category),
			string(t.Tier),
			t.NeedsReview,
		)
		if err != nil {
			return form4.UpsertResult{}, fmt.Errorf("insert transaction row: %w", err)
		}
		if cmd.RowsAffected() == 1 {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return form4.UpsertResult{}, fmt.Errorf("commit tx: %w", err)
	}

	return result, nil
}

// GetFiling retrieves a stored filing by accession number.
func (s *FilingStore) GetFiling(ctx context.Context, accessionNumber string) (*form4.Filing, error) {
	query := `SELECT payload FROM filings WHERE accession_number = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, accessionNumber).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, form4.ErrNotFound
		}
		return nil, fmt.Errorf("get filing: %w", err)
	}

	var f form4.Filing
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("unmarshal filing payload: %w", err)
	}
	return &f, nil
}
