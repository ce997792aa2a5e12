package form4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fingerprint computes the deterministic dedup key for one transaction
// line item using SHA-256 over semantically stable filing content:
//
//	accession|ownerCIK|securityTitle|transactionDate|code|shares|isDerivative
//
// Server-assigned row ids are deliberately excluded so that amended or
// resubmitted filings dedup against earlier processing runs. Returns a
// hex-encoded hash (64 characters).
func Fingerprint(accessionNumber string, t Transaction) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%t",
		accessionNumber,
		t.OwnerCIK,
		t.SecurityTitle,
		t.TransactionDate,
		t.Code,
		decimalKey(t.Shares),
		t.Derivative,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// decimalKey renders an optional amount canonically: absent stays distinct
// from zero, and trailing-zero variants of the same number collapse.
func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
