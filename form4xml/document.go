// Package form4xml normalizes raw SEC ownership-document XML (Forms 3, 4
// and 5 share the schema) into a uniform tree. SEC's XSD allows repeated
// elements for owners, transactions and footnotes, but generators
// historically collapse single-occurrence lists to bare elements; every
// list-valued field of Document is therefore always a slice, and every
// optional substructure is a pointer so "element absent" (nil) stays
// distinguishable from "element present but empty".
package form4xml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Document is the normalized form of one ownershipDocument.
type Document struct {
	XMLName        xml.Name `xml:"ownershipDocument"`
	SchemaVersion  string   `xml:"schemaVersion"`
	DocumentType   string   `xml:"documentType"`
	PeriodOfReport string   `xml:"periodOfReport"`
	Aff10b5One     Bool     `xml:"aff10b5One"` // 10b5-1 trading plan indicator

	Issuers         []Issuer         `xml:"issuer"`
	ReportingOwners []ReportingOwner `xml:"reportingOwner"`

	NonDerivativeTable *NonDerivativeTable `xml:"nonDerivativeTable"`
	DerivativeTable    *DerivativeTable    `xml:"derivativeTable"`

	Footnotes  []Footnote  `xml:"footnotes>footnote"`
	Signatures []Signature `xml:"ownerSignature"`
	Remarks    string      `xml:"remarks"`
}

// Issuer is the company whose stock is being traded.
type Issuer struct {
	CIK           string `xml:"issuerCik"`
	Name          string `xml:"issuerName"`
	TradingSymbol string `xml:"issuerTradingSymbol"`
}

// ReportingOwner is one insider block. Filings may carry several for
// jointly-reported transactions.
type ReportingOwner struct {
	ID           OwnerID      `xml:"reportingOwnerId"`
	Address      OwnerAddress `xml:"reportingOwnerAddress"`
	Relationship Relationship `xml:"reportingOwnerRelationship"`
}

type OwnerID struct {
	CIK  string `xml:"rptOwnerCik"`
	Name string `xml:"rptOwnerName"`
}

type OwnerAddress struct {
	Street1 string `xml:"rptOwnerStreet1"`
	Street2 string `xml:"rptOwnerStreet2"`
	City    string `xml:"rptOwnerCity"`
	State   string `xml:"rptOwnerState"`
	ZipCode string `xml:"rptOwnerZipCode"`
}

type Relationship struct {
	IsDirector        Bool   `xml:"isDirector"`
	IsOfficer         Bool   `xml:"isOfficer"`
	IsTenPercentOwner Bool   `xml:"isTenPercentOwner"`
	IsOther           Bool   `xml:"isOther"`
	OfficerTitle      string `xml:"officerTitle"`
}

// NonDerivativeTable holds direct stock transactions and holdings.
type NonDerivativeTable struct {
	Transactions []NonDerivativeTransaction `xml:"nonDerivativeTransaction"`
	Holdings     []NonDerivativeHolding     `xml:"nonDerivativeHolding"`
}

type NonDerivativeTransaction struct {
	SecurityTitle   Value                   `xml:"securityTitle"`
	TransactionDate Value                   `xml:"transactionDate"`
	Coding          TransactionCoding       `xml:"transactionCoding"`
	Amounts         TransactionAmounts      `xml:"transactionAmounts"`
	PostTransaction *PostTransactionAmounts `xml:"postTransactionAmounts"`
	OwnershipNature *OwnershipNature        `xml:"ownershipNature"`
}

type NonDerivativeHolding struct {
	SecurityTitle   Value                   `xml:"securityTitle"`
	PostTransaction *PostTransactionAmounts `xml:"postTransactionAmounts"`
	OwnershipNature *OwnershipNature        `xml:"ownershipNature"`
}

// DerivativeTable holds option/derivative transactions and holdings.
type DerivativeTable struct {
	Transactions []DerivativeTransaction `xml:"derivativeTransaction"`
	Holdings     []DerivativeHolding     `xml:"derivativeHolding"`
}

type DerivativeTransaction struct {
	SecurityTitle             Value                   `xml:"securityTitle"`
	ConversionOrExercisePrice *Value                  `xml:"conversionOrExercisePrice"`
	TransactionDate           Value                   `xml:"transactionDate"`
	Coding                    TransactionCoding       `xml:"transactionCoding"`
	Amounts                   TransactionAmounts      `xml:"transactionAmounts"`
	ExerciseDate              *Value                  `xml:"exerciseDate"`
	ExpirationDate            *Value                  `xml:"expirationDate"`
	UnderlyingSecurity        *UnderlyingSecurity     `xml:"underlyingSecurity"`
	PostTransaction           *PostTransactionAmounts `xml:"postTransactionAmounts"`
	OwnershipNature           *OwnershipNature        `xml:"ownershipNature"`
}

type DerivativeHolding struct {
	SecurityTitle             Value                   `xml:"securityTitle"`
	ConversionOrExercisePrice *Value                  `xml:"conversionOrExercisePrice"`
	ExerciseDate              *Value                  `xml:"exerciseDate"`
	ExpirationDate            *Value                  `xml:"expirationDate"`
	UnderlyingSecurity        *UnderlyingSecurity     `xml:"underlyingSecurity"`
	PostTransaction           *PostTransactionAmounts `xml:"postTransactionAmounts"`
	OwnershipNature           *OwnershipNature        `xml:"ownershipNature"`
}

type TransactionCoding struct {
	FormType           string     `xml:"transactionFormType"`
	Code               string     `xml:"transactionCode"`
	EquitySwapInvolved Bool       `xml:"equitySwapInvolved"`
	FootnoteID         FootnoteID `xml:"footnoteId"`
}

type TransactionAmounts struct {
	Shares           *Value `xml:"transactionShares"`
	PricePerShare    *Value `xml:"transactionPricePerShare"`
	AcquiredDisposed Value  `xml:"transactionAcquiredDisposedCode"`
}

type PostTransactionAmounts struct {
	SharesOwnedFollowing *Value `xml:"sharesOwnedFollowingTransaction"`
	ValueOwnedFollowing  *Value `xml:"valueOwnedFollowingTransaction"`
}

type OwnershipNature struct {
	DirectOrIndirect  Value  `xml:"directOrIndirectOwnership"`
	NatureOfOwnership *Value `xml:"natureOfOwnership"`
}

// UnderlyingSecurity is the security underlying a derivative.
type UnderlyingSecurity struct {
	SecurityTitle Value  `xml:"underlyingSecurityTitle"`
	Shares        *Value `xml:"underlyingSecurityShares"`
	Value         *Value `xml:"underlyingSecurityValue"`
}

type Footnote struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type Signature struct {
	Name string `xml:"signatureName"`
	Date string `xml:"signatureDate"`
}

// Value is the recurring SEC leaf shape: an optional <value> child plus an
// optional footnoteId reference. A Value with an empty string and a
// footnote id is a legitimate "see footnote" field.
type Value struct {
	Value      string     `xml:"value"`
	FootnoteID FootnoteID `xml:"footnoteId"`
}

type FootnoteID struct {
	ID string `xml:"id,attr"`
}

// Footnote returns the footnote ID as a string (for convenience).
func (v Value) Footnote() string {
	return v.FootnoteID.ID
}

// IsEmpty reports whether the value carries neither text nor a footnote ref.
func (v Value) IsEmpty() bool {
	return v.Value == "" && v.FootnoteID.ID == ""
}

// Decimal returns the value as an exact decimal. Empty values are an error,
// distinct from zero.
func (v Value) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(v.Value)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}

// Float64 returns the value as float64, handling empty values and footnote refs.
func (v Value) Float64() (float64, error) {
	if v.Value == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(v.Value, 64)
}

// Int returns the value as int.
func (v Value) Int() (int, error) {
	if v.Value == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(v.Value)
}

// Bool tolerates the flag encodings SEC generators actually emit:
// "1"/"0", "true"/"false" in any case, and empty or self-closing elements
// (treated as false, matching an absent flag).
type Bool bool

func (b *Bool) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no":
		*b = false
	case "1", "true", "yes":
		*b = true
	default:
		return fmt.Errorf("invalid boolean flag %q in <%s>", s, start.Name.Local)
	}
	return nil
}
