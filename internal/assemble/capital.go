//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package assemble

import (
	"encoding/json"
	"strings"
)

// FlexString unmarshals either a JSON string or number into a string.
// Agent outputs are not strict about numeric field types.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the value, or a placeholder when empty.
func (f FlexString) String() string {
	if f == "" {
		return "N/A"
	}
	return string(f)
}

// PremiumRound is one above-face-value allotment round from the share
// capital history.
type PremiumRound struct {
	RowNumber              FlexString `json:"row_number"`
	DateOfAllotment        string     `json:"date_of_allotment"`
	NatureOfAllotment      string     `json:"nature_of_allotment"`
	SharesAllotted         int64      `json:"shares_allotted"`
	FaceValue              float64    `json:"face_value"`
	IssuePrice             float64    `json:"issue_price"`
	CumulativeEquityShares int64      `json:"cumulative_equity_shares"`
}

// CapitalExtraction is the capital-history agent's structured output.
type CapitalExtraction struct {
	CalculationParameters struct {
		PremiumRounds []PremiumRound `json:"premium_rounds"`
		TableData     struct {
			MarkdownTable string `json:"markdown_table"`
		} `json:"table_data"`
	} `json:"calculation_parameters"`
}

// CapitalMarkdown renders the captured share capital history table and,
// when enabled, a per-round valuation analysis. For each premium round:
//
//	round raised = shares allotted x issue price
//	dilution     = shares allotted / cumulative equity shares
//	post-money   = round raised / dilution
func CapitalMarkdown(ex *CapitalExtraction, includeValuation bool) string {
	if ex == nil {
		return ""
	}

	table := ex.CalculationParameters.TableData.MarkdownTable
	rounds := ex.CalculationParameters.PremiumRounds

	var sb strings.Builder

	if table != "" {
		sb.WriteString("### PART 1: CAPTURED SHARE CAPITAL HISTORY\n\n")
		sb.WriteString(table)
		sb.WriteString("\n\n---\n\n")
	}

	if includeValuation && len(rounds) > 0 {
		sb.WriteString("### PART 2: PREMIUM ROUNDS & VALUATION ANALYSIS\n\n")
		for i, round := range rounds {
			roundRaised := float64(round.SharesAllotted) * round.IssuePrice
			var dilution float64
			if round.CumulativeEquityShares > 0 {
				dilution = float64(round.SharesAllotted) / float64(round.CumulativeEquityShares)
			}
			var postMoney float64
			if dilution > 0 {
				postMoney = roundRaised / dilution
			}

			dateOfAllotment := round.DateOfAllotment
			if dateOfAllotment == "" {
				dateOfAllotment = "N/A"
			}
			natureOfAllotment := round.NatureOfAllotment
			if natureOfAllotment == "" {
				natureOfAllotment = "N/A"
			}

			printer.Fprintf(&sb, "\n#### Premium Round %d\n\n", i+1)
			sb.WriteString("| Field | Value |\n|---|---|\n")
			printer.Fprintf(&sb, "| Row Number | %s |\n", round.RowNumber.String())
			printer.Fprintf(&sb, "| Date of Allotment | %s |\n", dateOfAllotment)
			printer.Fprintf(&sb, "| Nature of Allotment | %s |\n", natureOfAllotment)
			printer.Fprintf(&sb, "| Shares Allotted | %d |\n", round.SharesAllotted)
			printer.Fprintf(&sb, "| Face Value (₹) | %.2f |\n", round.FaceValue)
			printer.Fprintf(&sb, "| Issue Price (₹) | %.2f |\n", round.IssuePrice)
			printer.Fprintf(&sb, "| Cumulative Equity Shares | %d |\n", round.CumulativeEquityShares)
			printer.Fprintf(&sb, "| Round Raised (₹) | %.2f |\n", roundRaised)
			printer.Fprintf(&sb, "| Dilution (Decimal) | %.4f |\n", dilution)
			printer.Fprintf(&sb, "| Dilution (%%) | %.2f%% |\n", dilution*100)
			printer.Fprintf(&sb, "| Post Money Valuation (₹) | %.2f |\n", postMoney)
		}
	}

	if sb.Len() == 0 {
		return "\n### No share capital history or premium rounds found.\n"
	}

	return sb.String()
}
