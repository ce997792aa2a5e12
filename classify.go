package form4

// Tier is the importance tier assigned to a transaction. High and Medium
// transactions are pushed to alerting; Low transactions are persisted only.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Category is the semantic category of a transaction.
type Category string

const (
	CategoryPurchase       Category = "open-market purchase"
	CategorySale           Category = "open-market sale"
	CategoryGrant          Category = "grant/award"
	CategoryOptionExercise Category = "option exercise"
	CategoryConversion     Category = "conversion"
	CategoryGift           Category = "gift"
	CategoryTaxWithholding Category = "tax withholding"
	CategoryOther          Category = "other"
)

// Classification is the classifier's verdict for one transaction.
// NeedsReview marks transactions whose code is outside the known SEC code
// set; they are tiered Medium and kept rather than dropped, since
// suppressing a filing is worse than mis-tiering it.
type Classification struct {
	Category    Category
	Tier        Tier
	NeedsReview bool
}

// Classify assigns an importance tier and semantic category from the
// transaction code, the acquired/disposed flag and the derivative status.
// It is a total pure function: every code, including unrecognized ones,
// yields a classification.
//
// Derivative status takes precedence over the acquired/disposed flag: a
// code-A row on a derivative security is a grant of options, still
// grant/award. Open-market High tiers apply only to non-derivative rows
// with the matching flag.
func Classify(t Transaction) Classification {
	switch t.Code {
	case "P":
		if !t.Derivative && t.AcquiredDisposed == "A" {
			return Classification{Category: CategoryPurchase, Tier: TierHigh}
		}
		return Classification{Category: CategoryOther, Tier: TierMedium}
	case "S":
		if !t.Derivative && t.AcquiredDisposed == "D" {
			return Classification{Category: CategorySale, Tier: TierHigh}
		}
		return Classification{Category: CategoryOther, Tier: TierMedium}
	case "A":
		return Classification{Category: CategoryGrant, Tier: TierLow}
	case "M":
		return Classification{Category: CategoryOptionExercise, Tier: TierMedium}
	case "C":
		return Classification{Category: CategoryConversion, Tier: TierMedium}
	case "G":
		return Classification{Category: CategoryGift, Tier: TierLow}
	case "F":
		return Classification{Category: CategoryTaxWithholding, Tier: TierLow}
	default:
		return Classification{
			Category:    CategoryOther,
			Tier:        TierMedium,
			NeedsReview: !KnownCode(t.Code),
		}
	}
}

// transactionCodes is the SEC transaction-code reference table.
var transactionCodes = map[string]string{
	"P": "Open Market Purchase",
	"S": "Open Market Sale",
	"A": "Grant, Award or Other Acquisition",
	"D": "Disposition to the Issuer",
	"F": "Payment of Exercise Price or Tax Liability",
	"G": "Gift",
	"M": "Exercise or Conversion of Derivative Security",
	"C": "Conversion of Derivative Security",
	"E": "Expiration of Short Derivative Position",
	"H": "Expiration of Long Derivative Position",
	"I": "Discretionary Transaction",
	"J": "Other Acquisition or Disposition",
	"K": "Equity Swap Transaction",
	"L": "Small Acquisition",
	"O": "Exercise of Out-of-the-Money Derivative Security",
	"U": "Disposition Pursuant to a Tender",
	"W": "Acquisition or Disposition by Will or Laws of Descent",
	"X": "Exercise of In-the-Money or At-the-Money Derivative Security",
	"Z": "Deposit into or Withdrawal from Voting Trust",
}

// KnownCode reports whether code is in the SEC transaction-code set.
func KnownCode(code string) bool {
	_, ok := transactionCodes[code]
	return ok
}

// TransactionCodeDescription returns the human-readable transaction code
// description, or "" for unknown codes.
func TransactionCodeDescription(code string) string {
	return transactionCodes[code]
}
