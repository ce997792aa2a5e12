// Package memory provides an in-memory FilingStore for tests and embedded
// use. Semantics match the postgres store: fingerprint-keyed idempotent
// upserts, defensive copies on every read.
package memory

import (
	"context"
	"sync"

	form4 "github.com/tickerlabs/go-form4"
)

// FilingStore is an in-memory implementation of form4.FilingStore.
type FilingStore struct {
	mu           sync.RWMutex
	filings      map[string]*form4.Filing // keyed by accession number
	fingerprints map[string]struct{}      // transaction dedup keys
}

// NewFilingStore creates a new in-memory filing store.
func NewFilingStore() *FilingStore {
	return &FilingStore{
		filings:      make(map[string]*form4.Filing),
		fingerprints: make(map[string]struct{}),
	}
}

var _ form4.FilingStore = (*FilingStore)(nil)

// UpsertFiling inserts the filing's transactions, discarding line items
// whose fingerprint already exists.
func (s *FilingStore) UpsertFiling(_ context.Context, f *form4.Filing) (form4.UpsertResult, error) {
	if f == nil || f.AccessionNumber == "" {
		return form4.UpsertResult{}, form4.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result form4.UpsertResult
	for _, t := range f.Transactions {
		fp := form4.Fingerprint(f.AccessionNumber, t)
		if _, exists := s.fingerprints[fp]; exists {
			result.Duplicates++
			continue
		}
		s.fingerprints[fp] = struct{}{}
		result.Inserted++
	}

	// Latest extraction wins for the aggregate; amended filings replace
	// the header while transaction rows stay deduplicated above.
	cp := *f
	cp.Transactions = append([]form4.Transaction(nil), f.Transactions...)
	s.filings[f.AccessionNumber] = &cp

	return result, nil
}

// GetFiling retrieves a stored filing by accession number.
func (s *FilingStore) GetFiling(_ context.Context, accessionNumber string) (*form4.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.filings[accessionNumber]
	if !ok {
		return nil, form4.ErrNotFound
	}

	cp := *f
	cp.Transactions = append([]form4.Transaction(nil), f.Transactions...)
	return &cp, nil
}
