package form4

import (
	"context"
	"errors"
)

// UpsertResult reports what one upsert batch did.
type UpsertResult struct {
	Inserted   int
	Duplicates int
}

// FilingStore is the persistence boundary consumed by the pipeline,
// defined here so implementations depend on the domain types rather than
// the other way around. The core hands over one batch per filing; the
// store owns fingerprint computation and duplicate detection.
type FilingStore interface {
	// UpsertFiling inserts the filing's transactions, discarding line
	// items whose fingerprint already exists. Calling it twice with the
	// re-extracted result of the same accession number reports
	// Inserted=0, Duplicates=len(transactions) on the second call and
	// leaves stored state unchanged.
	UpsertFiling(ctx context.Context, f *Filing) (UpsertResult, error)

	// GetFiling retrieves a stored filing by accession number. Returns
	// ErrNotFound if it was never upserted.
	GetFiling(ctx context.Context, accessionNumber string) (*Filing, error)
}

// Storage errors.
var (
	// ErrNotFound is returned when a requested filing does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
