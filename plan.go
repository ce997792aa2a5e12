package form4

import (
	"regexp"
	"strings"
	"time"

	"github.com/tickerlabs/go-form4/form4xml"
)

// TenB51Result is the outcome of analyzing one block of text for Rule
// 10b5-1 trading-plan information.
type TenB51Result struct {
	Is10b51Plan  bool
	AdoptionDate *string // ISO-8601 (YYYY-MM-DD), nil if not found
}

var (
	// 10b5-1 references in their observed spellings (10b5-1, 10b5–1, Rule 10b5-1).
	re10b51 = regexp.MustCompile(`(?i)\b(rule\s*)?10b5[-–]?1\b`)

	// Positive language indicating active plan usage, not cancellation.
	rePositive = regexp.MustCompile(`(?i)\b(pursuant\s+to|adopted|in\s+accordance\s+with|under|effected\s+pursuant\s+to)\b`)

	// Adoption date near adoption language: "adopted ... on March 13, 2025"
	// or "entered into ... in September 2025".
	reAdoptionDate = regexp.MustCompile(
		`(?i)\b(adopted|established|entered\s+into).*?\b(on|in)\s+` +
			`((?:January|February|March|April|May|June|July|August|September|October|November|December|` +
			`Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)` +
			`\s+\d{1,2},\s+\d{4}|` +
			`(?:January|February|March|April|May|June|July|August|September|October|November|December|` +
			`Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)` +
			`\s+\d{4})`,
	)
)

// parsePlanDate tries the date layouts footnotes actually use and returns
// ISO-8601, or nil if none match.
func parsePlanDate(raw string) *string {
	raw = strings.TrimSpace(raw)

	layouts := []string{
		"January 2, 2006",
		"Jan 2, 2006",
		"January, 2006",
		"Jan, 2006",
		"January 2006",
		"Jan 2006",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}

	return nil
}

// Extract10b51 analyzes text (typically a footnote) for 10b5-1 plan
// information.
func Extract10b51(text string) TenB51Result {
	result := TenB51Result{}

	if !re10b51.MatchString(text) {
		return result
	}
	// No positive language means a cancellation or termination notice.
	if !rePositive.MatchString(text) {
		return result
	}

	result.Is10b51Plan = true

	match := reAdoptionDate.FindStringSubmatch(text)
	if len(match) >= 4 {
		if date := parsePlanDate(match[3]); date != nil {
			result.AdoptionDate = date
		}
	}

	return result
}

// remarksKey marks plan information found in the remarks field rather than
// a specific footnote. It applies globally only when the document-level
// flag is set and no footnote mentions the plan.
const remarksKey = "__REMARKS__"

// tenB51Footnotes maps footnote ids (and remarksKey) to adoption dates for
// every footnote that indicates active 10b5-1 plan usage. The date is ""
// when the plan is mentioned without a parseable adoption date.
func tenB51Footnotes(doc *form4xml.Document) map[string]string {
	result := make(map[string]string)

	for _, fn := range doc.Footnotes {
		analysis := Extract10b51(fn.Text)
		if !analysis.Is10b51Plan {
			continue
		}
		if analysis.AdoptionDate != nil {
			result[fn.ID] = *analysis.AdoptionDate
		} else {
			result[fn.ID] = ""
		}
	}

	if doc.Remarks != "" {
		analysis := Extract10b51(doc.Remarks)
		if analysis.Is10b51Plan {
			if analysis.AdoptionDate != nil {
				result[remarksKey] = *analysis.AdoptionDate
			} else {
				result[remarksKey] = ""
			}
		}
	}

	return result
}

// applyTenB51 resolves a transaction's plan status from its footnote
// references, falling back to remarks-wide plan info when enabled.
// Transaction-specific footnotes take precedence.
func applyTenB51(footnoteIDs []string, planMap map[string]string, useRemarksGlobal bool) (bool, *string) {
	for _, id := range footnoteIDs {
		if date, ok := planMap[id]; ok {
			if date != "" {
				return true, &date
			}
			return true, nil
		}
	}

	if useRemarksGlobal {
		if date, ok := planMap[remarksKey]; ok {
			if date != "" {
				return true, &date
			}
			return true, nil
		}
	}

	return false, nil
}

// documentHas10b51 reports whether the filing as a whole declares a 10b5-1
// plan, via the aff10b5One flag or any footnote/remarks mention.
func documentHas10b51(doc *form4xml.Document, planMap map[string]string) bool {
	if bool(doc.Aff10b5One) {
		return true
	}
	return len(planMap) > 0
}
