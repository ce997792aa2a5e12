// Package form4 extracts canonical insider-transaction records from SEC
// Form 4 ownership documents and classifies their market significance.
//
// The flow is normalize (form4xml) -> extract -> classify -> upsert
// (storage). Every step is a pure function over its input; callers may
// process filings concurrently without coordination.
package form4

import (
	"github.com/shopspring/decimal"
)

// Filing is the complete, validated result of one extraction pass over one
// ownership document. It is persisted all-or-nothing: extraction either
// yields a Filing or fails with a fatal error.
type Filing struct {
	AccessionNumber string `json:"accessionNumber"`
	SchemaVersion   string `json:"schemaVersion"`
	DocumentType    string `json:"documentType"`
	PeriodOfReport  string `json:"periodOfReport"`
	Has10b51Plan    bool   `json:"has10b51Plan"`

	Issuers      []Issuer         `json:"issuers"`
	Owners       []ReportingOwner `json:"reportingOwners"`
	Transactions []Transaction    `json:"transactions"`
	Holdings     []Holding        `json:"holdings,omitempty"`
	Footnotes    []Footnote       `json:"footnotes"`
	Signatures   []Signature      `json:"signatures"`
	Remarks      string           `json:"remarks,omitempty"`
}

// Issuer is the public company whose securities were traded.
type Issuer struct {
	CIK           string `json:"cik"`
	Name          string `json:"name"`
	TradingSymbol string `json:"tradingSymbol,omitempty"`
}

// ReportingOwner is the insider filing the form.
type ReportingOwner struct {
	CIK               string  `json:"cik"`
	Name              string  `json:"name"`
	Address           Address `json:"address"`
	IsDirector        bool    `json:"isDirector"`
	IsOfficer         bool    `json:"isOfficer"`
	IsTenPercentOwner bool    `json:"isTenPercentOwner"`
	IsOther           bool    `json:"isOther"`
	OfficerTitle      string  `json:"officerTitle,omitempty"`
}

type Address struct {
	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Transaction is one line item, derivative or non-derivative. Category,
// Tier and NeedsReview are derived by Classify from (code, acquired/
// disposed flag, Derivative) and are never independently mutable state.
type Transaction struct {
	OwnerCIK        string `json:"ownerCik"`
	SecurityTitle   string `json:"securityTitle"`
	TransactionDate string `json:"transactionDate"`
	Code            string `json:"transactionCode"`

	// Shares and Price are nil when the source omits them; a grant with
	// no price is valid and distinct from a zero price.
	Shares               *decimal.Decimal `json:"shares"`
	Price                *decimal.Decimal `json:"pricePerShare"`
	AcquiredDisposed     string           `json:"acquiredDisposed"` // "A" or "D"
	SharesOwnedFollowing *decimal.Decimal `json:"sharesOwnedFollowing"`
	DirectOrIndirect     string           `json:"directOrIndirect"` // "D" or "I"
	NatureOfOwnership    string           `json:"natureOfOwnership,omitempty"`
	EquitySwapInvolved   bool             `json:"equitySwapInvolved"`

	Derivative       bool             `json:"derivative"`
	ExercisePrice    *decimal.Decimal `json:"exercisePrice,omitempty"`
	ExerciseDate     string           `json:"exerciseDate,omitempty"`
	ExpirationDate   string           `json:"expirationDate,omitempty"`
	UnderlyingTitle  string           `json:"underlyingTitle,omitempty"`
	UnderlyingShares *decimal.Decimal `json:"underlyingShares,omitempty"`

	FootnoteIDs []string `json:"footnotes"`

	TenB51Plan         bool    `json:"is10b51Plan"`
	TenB51AdoptionDate *string `json:"plan10b51AdoptionDate"`

	Category    Category `json:"category,omitempty"`
	Tier        Tier     `json:"tier,omitempty"`
	NeedsReview bool     `json:"needsReview,omitempty"`
}

// Holding is a position statement (Table I/II holding row). Holdings carry
// no transaction code and are neither classified nor alerted.
type Holding struct {
	OwnerCIK             string           `json:"ownerCik"`
	SecurityTitle        string           `json:"securityTitle"`
	Derivative           bool             `json:"derivative"`
	SharesOwnedFollowing *decimal.Decimal `json:"sharesOwnedFollowing"`
	DirectOrIndirect     string           `json:"directOrIndirect"`
	NatureOfOwnership    string           `json:"natureOfOwnership,omitempty"`
	ExercisePrice        *decimal.Decimal `json:"exercisePrice,omitempty"`
	ExerciseDate         string           `json:"exerciseDate,omitempty"`
	ExpirationDate       string           `json:"expirationDate,omitempty"`
	UnderlyingTitle      string           `json:"underlyingTitle,omitempty"`
	UnderlyingShares     *decimal.Decimal `json:"underlyingShares,omitempty"`
	FootnoteIDs          []string         `json:"footnotes"`
}

// Footnote is a free-text clarification keyed by an id unique within the
// filing. Owned by Filing, referenced by Transaction fields.
type Footnote struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Signature is one signer name/date pair; jointly-signed filings carry
// several.
type Signature struct {
	Name string `json:"name"`
	Date string `json:"date"`
}
