package form4

import (
	"fmt"

	"github.com/tickerlabs/go-form4/form4xml"
)

// MalformedDocumentError is re-exported from form4xml so callers can match
// the whole failure taxonomy against this package alone.
type MalformedDocumentError = form4xml.MalformedDocumentError

// MissingRequiredFieldError is fatal for the filing: a Filing is never
// partially persisted, so any absent required field aborts extraction.
// Path names the offending field in source-document terms, e.g.
// "derivativeTable.derivativeTransaction[0].transactionCoding.transactionCode".
type MissingRequiredFieldError struct {
	Path string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Path)
}

// Diagnostic codes for non-fatal data-integrity findings.
const (
	DiagDuplicateFootnoteID    = "duplicate_footnote_id"
	DiagUnknownTransactionCode = "unknown_transaction_code"
)

// DataIntegrityError records a non-fatal inconsistency in the source
// document (duplicate footnote ids, unrecognized transaction codes).
// Processing continues with a documented default; the pipeline surfaces
// these as warning-level log entries, never as hard failures.
type DataIntegrityError struct {
	Code   string
	Path   string
	Detail string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s at %s: %s", e.Code, e.Path, e.Detail)
}
