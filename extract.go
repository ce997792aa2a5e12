package form4

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tickerlabs/go-form4/form4xml"
)

// ExtractFiling walks a normalized document and assembles the complete
// Filing aggregate for one accession number. Extraction is all-or-nothing:
// any missing required field aborts with an error and nothing is returned.
// Non-fatal findings (duplicate footnote ids) come back as diagnostics.
//
// The accession number is supplied by the caller; not all schema variants
// carry it in the document body.
func ExtractFiling(accessionNumber string, doc *form4xml.Document) (*Filing, []*DataIntegrityError, error) {
	issuers, err := ExtractIssuers(doc)
	if err != nil {
		return nil, nil, err
	}

	owners, err := ExtractReportingOwners(doc)
	if err != nil {
		return nil, nil, err
	}

	footnotes, diags := ExtractFootnotes(doc)

	nonDeriv, err := ExtractNonDerivativeTransactions(doc)
	if err != nil {
		return nil, nil, err
	}

	deriv, err := ExtractDerivativeTransactions(doc)
	if err != nil {
		return nil, nil, err
	}

	holdings, err := ExtractHoldings(doc)
	if err != nil {
		return nil, nil, err
	}

	signatures, err := ExtractSignatures(doc)
	if err != nil {
		return nil, nil, err
	}

	// Source document order: Table I rows precede Table II rows.
	transactions := make([]Transaction, 0, len(nonDeriv)+len(deriv))
	transactions = append(transactions, nonDeriv...)
	transactions = append(transactions, deriv...)

	planMap := tenB51Footnotes(doc)
	useRemarksGlobal := remarksApplyGlobally(doc, planMap)
	for i := range transactions {
		transactions[i].TenB51Plan, transactions[i].TenB51AdoptionDate =
			applyTenB51(transactions[i].FootnoteIDs, planMap, useRemarksGlobal)
	}

	return &Filing{
		AccessionNumber: accessionNumber,
		SchemaVersion:   doc.SchemaVersion,
		DocumentType:    doc.DocumentType,
		PeriodOfReport:  doc.PeriodOfReport,
		Has10b51Plan:    documentHas10b51(doc, planMap),
		Issuers:         issuers,
		Owners:          owners,
		Transactions:    transactions,
		Holdings:        holdings,
		Footnotes:       footnotes,
		Signatures:      signatures,
		Remarks:         doc.Remarks,
	}, diags, nil
}

// remarksApplyGlobally reports whether remarks-based 10b5-1 info should
// apply to every transaction: only when the document-level flag is set and
// no footnote mentions the plan itself.
func remarksApplyGlobally(doc *form4xml.Document, planMap map[string]string) bool {
	if !bool(doc.Aff10b5One) {
		return false
	}
	for k := range planMap {
		if k != remarksKey {
			return false
		}
	}
	_, ok := planMap[remarksKey]
	return ok
}

// ExtractIssuers returns the issuer entities. CIK and name are required
// per issuer; the trading symbol is optional (not all issuers have one at
// filing time).
func ExtractIssuers(doc *form4xml.Document) ([]Issuer, error) {
	if len(doc.Issuers) == 0 {
		return nil, &MissingRequiredFieldError{Path: "issuer"}
	}

	out := make([]Issuer, 0, len(doc.Issuers))
	for i, iss := range doc.Issuers {
		if iss.CIK == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("issuer[%d].issuerCik", i)}
		}
		if iss.Name == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("issuer[%d].issuerName", i)}
		}
		out = append(out, Issuer{
			CIK:           iss.CIK,
			Name:          iss.Name,
			TradingSymbol: iss.TradingSymbol,
		})
	}
	return out, nil
}

// ExtractReportingOwners returns one entity per owner block in document
// order. CIK and name are required per owner; relationship flags default
// to false when absent.
func ExtractReportingOwners(doc *form4xml.Document) ([]ReportingOwner, error) {
	if len(doc.ReportingOwners) == 0 {
		return nil, &MissingRequiredFieldError{Path: "reportingOwner"}
	}

	out := make([]ReportingOwner, 0, len(doc.ReportingOwners))
	for i, ro := range doc.ReportingOwners {
		if ro.ID.CIK == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("reportingOwner[%d].reportingOwnerId.rptOwnerCik", i)}
		}
		if ro.ID.Name == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("reportingOwner[%d].reportingOwnerId.rptOwnerName", i)}
		}
		out = append(out, ReportingOwner{
			CIK:  ro.ID.CIK,
			Name: ro.ID.Name,
			Address: Address{
				Street1: ro.Address.Street1,
				Street2: ro.Address.Street2,
				City:    ro.Address.City,
				State:   ro.Address.State,
				ZipCode: ro.Address.ZipCode,
			},
			IsDirector:        bool(ro.Relationship.IsDirector),
			IsOfficer:         bool(ro.Relationship.IsOfficer),
			IsTenPercentOwner: bool(ro.Relationship.IsTenPercentOwner),
			IsOther:           bool(ro.Relationship.IsOther),
			OfficerTitle:      ro.Relationship.OfficerTitle,
		})
	}
	return out, nil
}

// primaryOwnerCIK attributes transactions to the first reporting owner in
// document order. The schema keys transaction tables to the filing, not to
// an owner; joint filers share the same economic rows, so the primary
// filer's CIK is the stable attribution for fingerprinting.
func primaryOwnerCIK(doc *form4xml.Document) string {
	if len(doc.ReportingOwners) == 0 {
		return ""
	}
	return doc.ReportingOwners[0].ID.CIK
}

// ExtractNonDerivativeTransactions returns the Table I transactions in
// document order. Security title, date, code and acquired/disposed flag
// are required; shares and price are optional (absent is valid and
// distinct from zero).
func ExtractNonDerivativeTransactions(doc *form4xml.Document) ([]Transaction, error) {
	if doc.NonDerivativeTable == nil {
		return nil, nil
	}

	ownerCIK := primaryOwnerCIK(doc)
	out := make([]Transaction, 0, len(doc.NonDerivativeTable.Transactions))
	for i, txn := range doc.NonDerivativeTable.Transactions {
		path := fmt.Sprintf("nonDerivativeTable.nonDerivativeTransaction[%d]", i)

		t := Transaction{
			OwnerCIK:           ownerCIK,
			SecurityTitle:      txn.SecurityTitle.Value,
			TransactionDate:    txn.TransactionDate.Value,
			Code:               txn.Coding.Code,
			AcquiredDisposed:   txn.Amounts.AcquiredDisposed.Value,
			EquitySwapInvolved: bool(txn.Coding.EquitySwapInvolved),
		}

		if err := requireTransactionFields(&t, path); err != nil {
			return nil, err
		}

		var err error
		if t.Shares, err = decimalAt(txn.Amounts.Shares, path+".transactionAmounts.transactionShares"); err != nil {
			return nil, err
		}
		if t.Price, err = decimalAt(txn.Amounts.PricePerShare, path+".transactionAmounts.transactionPricePerShare"); err != nil {
			return nil, err
		}

		if txn.PostTransaction != nil {
			if t.SharesOwnedFollowing, err = decimalAt(txn.PostTransaction.SharesOwnedFollowing, path+".postTransactionAmounts.sharesOwnedFollowingTransaction"); err != nil {
				return nil, err
			}
		}
		if txn.OwnershipNature != nil {
			t.DirectOrIndirect = txn.OwnershipNature.DirectOrIndirect.Value
			if txn.OwnershipNature.NatureOfOwnership != nil {
				t.NatureOfOwnership = txn.OwnershipNature.NatureOfOwnership.Value
			}
		}

		t.FootnoteIDs = collectFootnoteIDs(
			txn.SecurityTitle.Footnote(),
			txn.TransactionDate.Footnote(),
			txn.Coding.FootnoteID.ID,
			valueFootnote(txn.Amounts.Shares),
			valueFootnote(txn.Amounts.PricePerShare),
			txn.Amounts.AcquiredDisposed.Footnote(),
			postFootnote(txn.PostTransaction),
			natureDirectFootnote(txn.OwnershipNature),
			natureOfOwnershipFootnote(txn.OwnershipNature),
		)

		out = append(out, t)
	}
	return out, nil
}

// ExtractDerivativeTransactions returns the Table II transactions in
// document order, with the derivative-specific fields (exercise price and
// dates, underlying security) populated when present.
func ExtractDerivativeTransactions(doc *form4xml.Document) ([]Transaction, error) {
	if doc.DerivativeTable == nil {
		return nil, nil
	}

	ownerCIK := primaryOwnerCIK(doc)
	out := make([]Transaction, 0, len(doc.DerivativeTable.Transactions))
	for i, txn := range doc.DerivativeTable.Transactions {
		path := fmt.Sprintf("derivativeTable.derivativeTransaction[%d]", i)

		t := Transaction{
			OwnerCIK:           ownerCIK,
			SecurityTitle:      txn.SecurityTitle.Value,
			TransactionDate:    txn.TransactionDate.Value,
			Code:               txn.Coding.Code,
			AcquiredDisposed:   txn.Amounts.AcquiredDisposed.Value,
			EquitySwapInvolved: bool(txn.Coding.EquitySwapInvolved),
			Derivative:         true,
		}

		if err := requireTransactionFields(&t, path); err != nil {
			return nil, err
		}

		var err error
		if t.Shares, err = decimalAt(txn.Amounts.Shares, path+".transactionAmounts.transactionShares"); err != nil {
			return nil, err
		}
		if t.Price, err = decimalAt(txn.Amounts.PricePerShare, path+".transactionAmounts.transactionPricePerShare"); err != nil {
			return nil, err
		}
		if t.ExercisePrice, err = decimalAt(txn.ConversionOrExercisePrice, path+".conversionOrExercisePrice"); err != nil {
			return nil, err
		}

		if txn.ExerciseDate != nil {
			t.ExerciseDate = txn.ExerciseDate.Value
		}
		if txn.ExpirationDate != nil {
			t.ExpirationDate = txn.ExpirationDate.Value
		}
		if txn.UnderlyingSecurity != nil {
			t.UnderlyingTitle = txn.UnderlyingSecurity.SecurityTitle.Value
			if t.UnderlyingShares, err = decimalAt(txn.UnderlyingSecurity.Shares, path+".underlyingSecurity.underlyingSecurityShares"); err != nil {
				return nil, err
			}
		}
		if txn.PostTransaction != nil {
			if t.SharesOwnedFollowing, err = decimalAt(txn.PostTransaction.SharesOwnedFollowing, path+".postTransactionAmounts.sharesOwnedFollowingTransaction"); err != nil {
				return nil, err
			}
		}
		if txn.OwnershipNature != nil {
			t.DirectOrIndirect = txn.OwnershipNature.DirectOrIndirect.Value
			if txn.OwnershipNature.NatureOfOwnership != nil {
				t.NatureOfOwnership = txn.OwnershipNature.NatureOfOwnership.Value
			}
		}

		t.FootnoteIDs = collectFootnoteIDs(
			txn.SecurityTitle.Footnote(),
			txn.TransactionDate.Footnote(),
			txn.Coding.FootnoteID.ID,
			valueFootnote(txn.ConversionOrExercisePrice),
			valueFootnote(txn.Amounts.Shares),
			valueFootnote(txn.Amounts.PricePerShare),
			txn.Amounts.AcquiredDisposed.Footnote(),
			valueFootnote(txn.ExerciseDate),
			valueFootnote(txn.ExpirationDate),
			underlyingTitleFootnote(txn.UnderlyingSecurity),
			underlyingSharesFootnote(txn.UnderlyingSecurity),
			postFootnote(txn.PostTransaction),
			natureDirectFootnote(txn.OwnershipNature),
			natureOfOwnershipFootnote(txn.OwnershipNature),
		)

		out = append(out, t)
	}
	return out, nil
}

// ExtractHoldings returns Table I and Table II holding rows in document
// order. Holdings are position statements; only the security title is
// required.
func ExtractHoldings(doc *form4xml.Document) ([]Holding, error) {
	ownerCIK := primaryOwnerCIK(doc)
	var out []Holding

	if doc.NonDerivativeTable != nil {
		for i, h := range doc.NonDerivativeTable.Holdings {
			path := fmt.Sprintf("nonDerivativeTable.nonDerivativeHolding[%d]", i)
			if h.SecurityTitle.IsEmpty() {
				return nil, &MissingRequiredFieldError{Path: path + ".securityTitle"}
			}

			holding := Holding{
				OwnerCIK:      ownerCIK,
				SecurityTitle: h.SecurityTitle.Value,
			}
			var err error
			if h.PostTransaction != nil {
				if holding.SharesOwnedFollowing, err = decimalAt(h.PostTransaction.SharesOwnedFollowing, path+".postTransactionAmounts.sharesOwnedFollowingTransaction"); err != nil {
					return nil, err
				}
			}
			if h.OwnershipNature != nil {
				holding.DirectOrIndirect = h.OwnershipNature.DirectOrIndirect.Value
				if h.OwnershipNature.NatureOfOwnership != nil {
					holding.NatureOfOwnership = h.OwnershipNature.NatureOfOwnership.Value
				}
			}
			holding.FootnoteIDs = collectFootnoteIDs(
				h.SecurityTitle.Footnote(),
				postFootnote(h.PostTransaction),
				natureDirectFootnote(h.OwnershipNature),
				natureOfOwnershipFootnote(h.OwnershipNature),
			)
			out = append(out, holding)
		}
	}

	if doc.DerivativeTable != nil {
		for i, h := range doc.DerivativeTable.Holdings {
			path := fmt.Sprintf("derivativeTable.derivativeHolding[%d]", i)
			if h.SecurityTitle.IsEmpty() {
				return nil, &MissingRequiredFieldError{Path: path + ".securityTitle"}
			}

			holding := Holding{
				OwnerCIK:      ownerCIK,
				SecurityTitle: h.SecurityTitle.Value,
				Derivative:    true,
			}
			var err error
			if holding.ExercisePrice, err = decimalAt(h.ConversionOrExercisePrice, path+".conversionOrExercisePrice"); err != nil {
				return nil, err
			}
			if h.ExerciseDate != nil {
				holding.ExerciseDate = h.ExerciseDate.Value
			}
			if h.ExpirationDate != nil {
				holding.ExpirationDate = h.ExpirationDate.Value
			}
			if h.UnderlyingSecurity != nil {
				holding.UnderlyingTitle = h.UnderlyingSecurity.SecurityTitle.Value
				if holding.UnderlyingShares, err = decimalAt(h.UnderlyingSecurity.Shares, path+".underlyingSecurity.underlyingSecurityShares"); err != nil {
					return nil, err
				}
			}
			if h.PostTransaction != nil {
				if holding.SharesOwnedFollowing, err = decimalAt(h.PostTransaction.SharesOwnedFollowing, path+".postTransactionAmounts.sharesOwnedFollowingTransaction"); err != nil {
					return nil, err
				}
			}
			if h.OwnershipNature != nil {
				holding.DirectOrIndirect = h.OwnershipNature.DirectOrIndirect.Value
				if h.OwnershipNature.NatureOfOwnership != nil {
					holding.NatureOfOwnership = h.OwnershipNature.NatureOfOwnership.Value
				}
			}
			holding.FootnoteIDs = collectFootnoteIDs(
				h.SecurityTitle.Footnote(),
				valueFootnote(h.ConversionOrExercisePrice),
				valueFootnote(h.ExerciseDate),
				valueFootnote(h.ExpirationDate),
				underlyingTitleFootnote(h.UnderlyingSecurity),
				underlyingSharesFootnote(h.UnderlyingSecurity),
				postFootnote(h.PostTransaction),
				natureDirectFootnote(h.OwnershipNature),
				natureOfOwnershipFootnote(h.OwnershipNature),
			)
			out = append(out, holding)
		}
	}

	return out, nil
}

// ExtractFootnotes returns the filing's footnotes in document order.
// Duplicate ids within one filing are occasionally emitted by SEC
// generators; the last occurrence wins and the duplication is surfaced as
// a warning-level diagnostic rather than a hard failure.
func ExtractFootnotes(doc *form4xml.Document) ([]Footnote, []*DataIntegrityError) {
	var diags []*DataIntegrityError

	index := make(map[string]int, len(doc.Footnotes))
	out := make([]Footnote, 0, len(doc.Footnotes))
	for i, fn := range doc.Footnotes {
		if prev, dup := index[fn.ID]; dup {
			diags = append(diags, &DataIntegrityError{
				Code:   DiagDuplicateFootnoteID,
				Path:   fmt.Sprintf("footnotes.footnote[%d]", i),
				Detail: fmt.Sprintf("footnote id %q already defined; last occurrence wins", fn.ID),
			})
			out[prev] = Footnote{ID: fn.ID, Text: fn.Text}
			continue
		}
		index[fn.ID] = len(out)
		out = append(out, Footnote{ID: fn.ID, Text: fn.Text})
	}

	return out, diags
}

// ExtractSignatures returns the ordered signer name/date pairs. At least
// one signature is required.
func ExtractSignatures(doc *form4xml.Document) ([]Signature, error) {
	if len(doc.Signatures) == 0 {
		return nil, &MissingRequiredFieldError{Path: "ownerSignature"}
	}

	out := make([]Signature, 0, len(doc.Signatures))
	for i, sig := range doc.Signatures {
		if sig.Name == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("ownerSignature[%d].signatureName", i)}
		}
		if sig.Date == "" {
			return nil, &MissingRequiredFieldError{Path: fmt.Sprintf("ownerSignature[%d].signatureDate", i)}
		}
		out = append(out, Signature{Name: sig.Name, Date: sig.Date})
	}
	return out, nil
}

// requireTransactionFields enforces the per-transaction required fields.
func requireTransactionFields(t *Transaction, path string) error {
	if t.SecurityTitle == "" {
		return &MissingRequiredFieldError{Path: path + ".securityTitle.value"}
	}
	if t.TransactionDate == "" {
		return &MissingRequiredFieldError{Path: path + ".transactionDate.value"}
	}
	if t.Code == "" {
		return &MissingRequiredFieldError{Path: path + ".transactionCoding.transactionCode"}
	}
	if t.AcquiredDisposed == "" {
		return &MissingRequiredFieldError{Path: path + ".transactionAmounts.transactionAcquiredDisposedCode.value"}
	}
	return nil
}

// decimalAt parses an optional numeric value. A nil element or a
// footnote-only value (present, empty text) is absent, not zero. A present
// but unparsable number is fatal: extraction fails fast rather than
// persisting a corrupted amount.
func decimalAt(v *form4xml.Value, path string) (*decimal.Decimal, error) {
	if v == nil || v.Value == "" {
		return nil, nil
	}
	d, err := v.Decimal()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &d, nil
}

func valueFootnote(v *form4xml.Value) string {
	if v == nil {
		return ""
	}
	return v.Footnote()
}

func postFootnote(p *form4xml.PostTransactionAmounts) string {
	if p == nil || p.SharesOwnedFollowing == nil {
		return ""
	}
	return p.SharesOwnedFollowing.Footnote()
}

func natureDirectFootnote(n *form4xml.OwnershipNature) string {
	if n == nil {
		return ""
	}
	return n.DirectOrIndirect.Footnote()
}

func natureOfOwnershipFootnote(n *form4xml.OwnershipNature) string {
	if n == nil {
		return ""
	}
	return valueFootnote(n.NatureOfOwnership)
}

func underlyingTitleFootnote(u *form4xml.UnderlyingSecurity) string {
	if u == nil {
		return ""
	}
	return u.SecurityTitle.Footnote()
}

func underlyingSharesFootnote(u *form4xml.UnderlyingSecurity) string {
	if u == nil {
		return ""
	}
	return valueFootnote(u.Shares)
}

// collectFootnoteIDs deduplicates footnote ids, preserving first-seen
// order and dropping empties.
func collectFootnoteIDs(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	result := []string{}

	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}

	return result
}
