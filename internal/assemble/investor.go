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
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats share counts and amounts with thousands separators.
var printer = message.NewPrinter(language.English)

// Investor is one row of the extracted shareholding table.
type Investor struct {
	Name            string `json:"investor_name"`
	Shares          int64  `json:"number_of_equity_shares"`
	PreIssuePercent string `json:"percentage_of_pre_issue_capital"`
	Category        string `json:"investor_category"`
}

// InvestorExtraction is the investor agent's structured output.
type InvestorExtraction struct {
	CompanyName     string     `json:"company_name"`
	TotalShareIssue int64      `json:"total_share_issue"`
	Investors       []Investor `json:"section_a_extracted_investors"`
}

// InvestorMarkdown renders the extraction as summary stats plus the full
// investor table. When the extracted rows do not account for the total
// share issue, an Others row absorbs the remainder and every percentage
// is recomputed against the total. Investors matching a target entity are
// marked in the table.
func InvestorMarkdown(ex *InvestorExtraction, targetEntities []string) string {
	if ex == nil {
		return ""
	}

	companyName := ex.CompanyName
	if companyName == "" {
		companyName = "Company Name Not Found"
	}

	investors := make([]Investor, len(ex.Investors))
	copy(investors, ex.Investors)

	if ex.TotalShareIssue > 0 {
		var extracted int64
		for _, inv := range investors {
			extracted += inv.Shares
		}
		if extracted < ex.TotalShareIssue {
			investors = append(investors, Investor{
				Name:     "Others",
				Shares:   ex.TotalShareIssue - extracted,
				Category: "Public",
			})
		}

		// Recalculate percentages against the full issue
		for i := range investors {
			pct := float64(investors[i].Shares) / float64(ex.TotalShareIssue) * 100
			investors[i].PreIssuePercent = fmt.Sprintf("%.2f%%", pct)
		}
	}

	var totalShares int64
	var totalPercent float64
	for _, inv := range investors {
		totalShares += inv.Shares
		totalPercent += parsePercent(inv.PreIssuePercent)
	}
	totalPercentStr := fmt.Sprintf("%.2f%%", totalPercent)

	var sb strings.Builder
	sb.WriteString("## Complete Investors & Share Capital History Tables\n\n")
	printer.Fprintf(&sb, "**Company Name:** %s\n\n", companyName)
	printer.Fprintf(&sb, "**Total Share Issue:** %d\n\n", ex.TotalShareIssue)
	printer.Fprintf(&sb, "**Total Investors Extracted:** %d\n\n", len(investors))
	printer.Fprintf(&sb, "**Total Extracted Shares:** %d\n\n", totalShares)
	printer.Fprintf(&sb, "**Total Extracted %%:** %s\n\n", totalPercentStr)
	sb.WriteString("---\n\n")
	sb.WriteString("## SECTION A: COMPLETE INVESTOR LIST FROM DRHP\n\n")
	sb.WriteString("| Investor Name | Number of Equity Shares | % of Pre-Issue Capital | Investor Category |\n")
	sb.WriteString("|---|---|---|---|\n")

	if len(investors) == 0 {
		sb.WriteString("| No investors found | - | - | - |\n")
	} else {
		for _, inv := range investors {
			name := inv.Name
			if name == "" {
				name = "N/A"
			}
			if matchesTarget(name, targetEntities) {
				name = "**" + name + "** *(target)*"
			}
			pct := inv.PreIssuePercent
			if pct == "" {
				pct = "0%"
			}
			category := inv.Category
			if category == "" {
				category = "N/A"
			}
			printer.Fprintf(&sb, "| %s | %d | %s | %s |\n", name, inv.Shares, pct, category)
		}
		printer.Fprintf(&sb, "| **TOTAL** | **%d** | **%s** | - |\n", totalShares, totalPercentStr)
	}

	sb.WriteString("\n")
	return sb.String()
}

// parsePercent reads a "12.34%" style value, returning 0 on anything
// unparseable.
func parsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// matchesTarget reports whether the investor name matches any target
// entity, case-insensitively, in either direction of containment.
func matchesTarget(name string, targets []string) bool {
	lower := strings.ToLower(name)
	for _, t := range targets {
		target := strings.ToLower(strings.TrimSpace(t))
		if target == "" {
			continue
		}
		if strings.Contains(lower, target) || strings.Contains(target, lower) {
			return true
		}
	}
	return false
}
