package form4_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	form4 "github.com/tickerlabs/go-form4"
	"github.com/tickerlabs/go-form4/form4xml"
)

func loadFiling(t *testing.T, testCase, accession string) (*form4.Filing, []*form4.DataIntegrityError) {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("testdata", "form4", testCase, "input.xml"))
	require.NoError(t, err, "failed to read input.xml")

	doc, err := form4xml.Normalize(raw)
	require.NoError(t, err, "failed to normalize document")

	filing, diags, err := form4.ExtractFiling(accession, doc)
	require.NoError(t, err, "failed to extract filing")

	return filing, diags
}

// TestExtractIngredionGrant covers a derivative deferred-stock-unit award:
// fractional share counts, a footnote-only exercise price, and a single
// attorney-in-fact signature.
func TestExtractIngredionGrant(t *testing.T) {
	filing, diags := loadFiling(t, "ingredion", "0001046257-25-000123")

	assert.Empty(t, diags)
	assert.Equal(t, "0001046257-25-000123", filing.AccessionNumber)
	assert.Equal(t, "4", filing.DocumentType)
	assert.Equal(t, "2025-09-15", filing.PeriodOfReport)

	require.Len(t, filing.Issuers, 1)
	assert.Equal(t, "0001046257", filing.Issuers[0].CIK)
	assert.Equal(t, "Ingredion Inc", filing.Issuers[0].Name)
	assert.Equal(t, "INGR", filing.Issuers[0].TradingSymbol)

	require.Len(t, filing.Owners, 1)
	owner := filing.Owners[0]
	assert.Equal(t, "0002020263", owner.CIK)
	assert.Equal(t, "Leonard Michael J", owner.Name)
	assert.True(t, owner.IsOfficer)
	assert.False(t, owner.IsDirector)
	assert.Equal(t, "SVP, Chief Financial Officer", owner.OfficerTitle)

	require.Len(t, filing.Transactions, 1)
	txn := filing.Transactions[0]
	assert.True(t, txn.Derivative)
	assert.Equal(t, "0002020263", txn.OwnerCIK)
	assert.Equal(t, "Deferred Stock Units", txn.SecurityTitle)
	assert.Equal(t, "2025-09-15", txn.TransactionDate)
	assert.Equal(t, "A", txn.Code)
	assert.Equal(t, "A", txn.AcquiredDisposed)

	// Fractional shares survive exactly, never rounded through a float.
	require.NotNil(t, txn.Shares)
	assert.Equal(t, "26.686", txn.Shares.String())
	require.NotNil(t, txn.Price)
	assert.Equal(t, "123.67", txn.Price.String())
	require.NotNil(t, txn.SharesOwnedFollowing)
	assert.Equal(t, "366.171", txn.SharesOwnedFollowing.String())

	// Exercise price is footnote-only: absent as a number, referenced as F1.
	assert.Nil(t, txn.ExercisePrice)
	assert.Contains(t, txn.FootnoteIDs, "F1")

	assert.Equal(t, "Common Stock", txn.UnderlyingTitle)
	require.NotNil(t, txn.UnderlyingShares)
	assert.Equal(t, "26.686", txn.UnderlyingShares.String())

	require.Len(t, filing.Footnotes, 1)
	assert.Equal(t, "F1", filing.Footnotes[0].ID)

	require.Len(t, filing.Signatures, 1)
	assert.Equal(t, "Michael N. Levy, attorney-in-fact", filing.Signatures[0].Name)
	assert.Equal(t, "2025-09-16", filing.Signatures[0].Date)

	// Code A on a derivative is still a grant: derivative status takes
	// precedence over the acquired/disposed flag.
	c := form4.Classify(txn)
	assert.Equal(t, form4.CategoryGrant, c.Category)
	assert.Equal(t, form4.TierLow, c.Tier)
	assert.False(t, c.NeedsReview)
}

// TestExtractPlannedSale covers a non-derivative 10b5-1 sale with weighted
// average price and indirect ownership through a trust.
func TestExtractPlannedSale(t *testing.T) {
	filing, diags := loadFiling(t, "planned_sale", "0001640147-25-000456")

	assert.Empty(t, diags)
	assert.True(t, filing.Has10b51Plan)

	require.Len(t, filing.Transactions, 1)
	txn := filing.Transactions[0]
	assert.False(t, txn.Derivative)
	assert.Equal(t, "S", txn.Code)
	assert.Equal(t, "D", txn.AcquiredDisposed)
	assert.Equal(t, "I", txn.DirectOrIndirect)
	assert.Equal(t, "By Trust", txn.NatureOfOwnership)

	require.NotNil(t, txn.Price)
	assert.Equal(t, "205.1457", txn.Price.String())

	assert.ElementsMatch(t, []string{"F1", "F2", "F3"}, txn.FootnoteIDs)

	// Footnote F1 names the plan and its adoption date.
	assert.True(t, txn.TenB51Plan)
	require.NotNil(t, txn.TenB51AdoptionDate)
	assert.Equal(t, "2025-03-13", *txn.TenB51AdoptionDate)

	c := form4.Classify(txn)
	assert.Equal(t, form4.CategorySale, c.Category)
	assert.Equal(t, form4.TierHigh, c.Tier)
}

// Joint filings carry several reportingOwner blocks but share one set of
// transaction tables. All owners extract in document order; transactions
// are attributed to the first owner (the primary filer), whose CIK feeds
// the fingerprint.
func TestExtractJointFiling(t *testing.T) {
	xml := `<ownershipDocument>
		<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
		<reportingOwner>
			<reportingOwnerId>
				<rptOwnerCik>0001111111</rptOwnerCik>
				<rptOwnerName>Primary Filer</rptOwnerName>
			</reportingOwnerId>
			<reportingOwnerRelationship><isDirector>1</isDirector></reportingOwnerRelationship>
		</reportingOwner>
		<reportingOwner>
			<reportingOwnerId>
				<rptOwnerCik>0002222222</rptOwnerCik>
				<rptOwnerName>Joint Filer Trust</rptOwnerName>
			</reportingOwnerId>
			<reportingOwnerRelationship><isOther>1</isOther></reportingOwnerRelationship>
		</reportingOwner>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<securityTitle><value>Common Stock</value></securityTitle>
				<transactionDate><value>2025-01-15</value></transactionDate>
				<transactionCoding><transactionCode>P</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>1000</value></transactionShares>
					<transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
				</transactionAmounts>
			</nonDerivativeTransaction>
			<nonDerivativeTransaction>
				<securityTitle><value>Common Stock</value></securityTitle>
				<transactionDate><value>2025-01-16</value></transactionDate>
				<transactionCoding><transactionCode>S</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>200</value></transactionShares>
					<transactionAcquiredDisposedCode><value>D</value></transactionAcquiredDisposedCode>
				</transactionAmounts>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
		<ownerSignature><signatureName>Primary Filer</signatureName><signatureDate>2025-01-17</signatureDate></ownerSignature>
		<ownerSignature><signatureName>Joint Filer Trust</signatureName><signatureDate>2025-01-17</signatureDate></ownerSignature>
	</ownershipDocument>`

	doc, err := form4xml.Normalize([]byte(xml))
	require.NoError(t, err)

	filing, diags, err := form4.ExtractFiling("0000000000-25-000006", doc)
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, filing.Owners, 2)
	assert.Equal(t, "0001111111", filing.Owners[0].CIK)
	assert.Equal(t, "Primary Filer", filing.Owners[0].Name)
	assert.Equal(t, "0002222222", filing.Owners[1].CIK)
	assert.Equal(t, "Joint Filer Trust", filing.Owners[1].Name)

	require.Len(t, filing.Transactions, 2)
	for _, txn := range filing.Transactions {
		assert.Equal(t, "0001111111", txn.OwnerCIK,
			"transactions are attributed to the primary filer")
	}

	// One row per economic transaction regardless of owner count.
	assert.NotEqual(t,
		form4.Fingerprint(filing.AccessionNumber, filing.Transactions[0]),
		form4.Fingerprint(filing.AccessionNumber, filing.Transactions[1]),
	)

	require.Len(t, filing.Signatures, 2)
}

func TestExtractMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		xml      string
		wantPath string
	}{
		{
			name:     "no issuer",
			xml:      `<ownershipDocument><ownerSignature><signatureName>X</signatureName><signatureDate>2025-01-01</signatureDate></ownerSignature></ownershipDocument>`,
			wantPath: "issuer",
		},
		{
			name: "issuer without cik",
			xml: `<ownershipDocument>
				<issuer><issuerName>Test</issuerName></issuer>
			</ownershipDocument>`,
			wantPath: "issuer[0].issuerCik",
		},
		{
			name: "owner without name",
			xml: `<ownershipDocument>
				<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
				<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik></reportingOwnerId></reportingOwner>
			</ownershipDocument>`,
			wantPath: "reportingOwner[0].reportingOwnerId.rptOwnerName",
		},
		{
			name: "transaction without code",
			xml: `<ownershipDocument>
				<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
				<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
				<nonDerivativeTable>
					<nonDerivativeTransaction>
						<securityTitle><value>Common Stock</value></securityTitle>
						<transactionDate><value>2025-01-01</value></transactionDate>
						<transactionAmounts>
							<transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
						</transactionAmounts>
					</nonDerivativeTransaction>
				</nonDerivativeTable>
			</ownershipDocument>`,
			wantPath: "nonDerivativeTable.nonDerivativeTransaction[0].transactionCoding.transactionCode",
		},
		{
			name: "no signature",
			xml: `<ownershipDocument>
				<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
				<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
			</ownershipDocument>`,
			wantPath: "ownerSignature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := form4xml.Normalize([]byte(tt.xml))
			require.NoError(t, err)

			_, _, err = form4.ExtractFiling("0000000000-25-000001", doc)
			require.Error(t, err)

			var missing *form4.MissingRequiredFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.wantPath, missing.Path)
		})
	}
}

func TestExtractMissingPriceTolerated(t *testing.T) {
	xml := `<ownershipDocument>
		<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
		<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<securityTitle><value>Common Stock</value></securityTitle>
				<transactionDate><value>2025-01-01</value></transactionDate>
				<transactionCoding><transactionCode>A</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>1000</value></transactionShares>
					<transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
				</transactionAmounts>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
		<ownerSignature><signatureName>O</signatureName><signatureDate>2025-01-02</signatureDate></ownerSignature>
	</ownershipDocument>`

	doc, err := form4xml.Normalize([]byte(xml))
	require.NoError(t, err)

	filing, diags, err := form4.ExtractFiling("0000000000-25-000002", doc)
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, filing.Transactions, 1)
	assert.Nil(t, filing.Transactions[0].Price, "missing price must be absent, not zero")
	require.NotNil(t, filing.Transactions[0].Shares)
}

func TestExtractUnparsableAmountFatal(t *testing.T) {
	xml := `<ownershipDocument>
		<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
		<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<securityTitle><value>Common Stock</value></securityTitle>
				<transactionDate><value>2025-01-01</value></transactionDate>
				<transactionCoding><transactionCode>P</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>lots</value></transactionShares>
					<transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
				</transactionAmounts>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
		<ownerSignature><signatureName>O</signatureName><signatureDate>2025-01-02</signatureDate></ownerSignature>
	</ownershipDocument>`

	doc, err := form4xml.Normalize([]byte(xml))
	require.NoError(t, err)

	_, _, err = form4.ExtractFiling("0000000000-25-000003", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transactionShares")
}

func TestExtractDuplicateFootnoteIDs(t *testing.T) {
	xml := `<ownershipDocument>
		<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
		<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
		<footnotes>
			<footnote id="F1">First text.</footnote>
			<footnote id="F1">Second text wins.</footnote>
		</footnotes>
		<ownerSignature><signatureName>O</signatureName><signatureDate>2025-01-02</signatureDate></ownerSignature>
	</ownershipDocument>`

	doc, err := form4xml.Normalize([]byte(xml))
	require.NoError(t, err)

	filing, diags, err := form4.ExtractFiling("0000000000-25-000004", doc)
	require.NoError(t, err, "duplicate footnote ids are non-fatal")

	require.Len(t, filing.Footnotes, 1)
	assert.Equal(t, "Second text wins.", filing.Footnotes[0].Text)

	require.Len(t, diags, 1)
	assert.Equal(t, form4.DiagDuplicateFootnoteID, diags[0].Code)
	assert.Equal(t, "footnotes.footnote[1]", diags[0].Path)
}

func TestExtractHoldings(t *testing.T) {
	xml := `<ownershipDocument>
		<issuer><issuerCik>1</issuerCik><issuerName>Test</issuerName></issuer>
		<reportingOwner><reportingOwnerId><rptOwnerCik>2</rptOwnerCik><rptOwnerName>O</rptOwnerName></reportingOwnerId></reportingOwner>
		<nonDerivativeTable>
			<nonDerivativeHolding>
				<securityTitle><value>Common Stock</value></securityTitle>
				<postTransactionAmounts>
					<sharesOwnedFollowingTransaction><value>5000</value></sharesOwnedFollowingTransaction>
				</postTransactionAmounts>
				<ownershipNature>
					<directOrIndirectOwnership><value>I</value></directOrIndirectOwnership>
					<natureOfOwnership><value>By 401(k)</value></natureOfOwnership>
				</ownershipNature>
			</nonDerivativeHolding>
		</nonDerivativeTable>
		<ownerSignature><signatureName>O</signatureName><signatureDate>2025-01-02</signatureDate></ownerSignature>
	</ownershipDocument>`

	doc, err := form4xml.Normalize([]byte(xml))
	require.NoError(t, err)

	filing, _, err := form4.ExtractFiling("0000000000-25-000005", doc)
	require.NoError(t, err)

	assert.Empty(t, filing.Transactions)
	require.Len(t, filing.Holdings, 1)
	h := filing.Holdings[0]
	assert.Equal(t, "Common Stock", h.SecurityTitle)
	assert.False(t, h.Derivative)
	require.NotNil(t, h.SharesOwnedFollowing)
	assert.Equal(t, "5000", h.SharesOwnedFollowing.String())
	assert.Equal(t, "I", h.DirectOrIndirect)
	assert.Equal(t, "By 401(k)", h.NatureOfOwnership)
}

// TestFilingJSONRoundTrip verifies the canonical record survives JSON
// serialization: string and date fields byte-for-byte, amounts numerically
// exact including fractional shares.
func TestFilingJSONRoundTrip(t *testing.T) {
	filing, _ := loadFiling(t, "ingredion", "0001046257-25-000123")

	data, err := json.Marshal(filing)
	require.NoError(t, err)

	var restored form4.Filing
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, filing.AccessionNumber, restored.AccessionNumber)
	assert.Equal(t, filing.PeriodOfReport, restored.PeriodOfReport)
	assert.Equal(t, filing.Signatures, restored.Signatures)

	require.Len(t, restored.Transactions, 1)
	require.NotNil(t, restored.Transactions[0].Shares)
	assert.True(t, filing.Transactions[0].Shares.Equal(*restored.Transactions[0].Shares),
		"fractional shares must survive the round trip exactly")
	assert.Equal(t, "26.686", restored.Transactions[0].Shares.String())
}
