//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvestorMarkdown_Nil(t *testing.T) {
	assert.Equal(t, "", InvestorMarkdown(nil, nil))
}

func TestInvestorMarkdown_EmptyExtraction(t *testing.T) {
	out := InvestorMarkdown(&InvestorExtraction{}, nil)

	assert.Contains(t, out, "**Company Name:** Company Name Not Found")
	assert.Contains(t, out, "| No investors found | - | - | - |")
	assert.NotContains(t, out, "**TOTAL**")
}

func TestInvestorMarkdown_OthersRowAndRecomputedPercentages(t *testing.T) {
	ex := &InvestorExtraction{
		CompanyName:     "Acme Industries Limited",
		TotalShareIssue: 100000,
		Investors: []Investor{
			{Name: "Alpha Capital", Shares: 25000, PreIssuePercent: "99%", Category: "FII"},
			{Name: "Beta Partners", Shares: 25000, PreIssuePercent: "1%", Category: "Promoter"},
		},
	}

	out := InvestorMarkdown(ex, nil)

	// Extracted rows cover half the issue, so an Others row absorbs the
	// remainder and the bogus reported percentages are recomputed.
	assert.Contains(t, out, "| Alpha Capital | 25,000 | 25.00% | FII |")
	assert.Contains(t, out, "| Beta Partners | 25,000 | 25.00% | Promoter |")
	assert.Contains(t, out, "| Others | 50,000 | 50.00% | Public |")
	assert.Contains(t, out, "| **TOTAL** | **100,000** | **100.00%** | - |")

	assert.Contains(t, out, "**Company Name:** Acme Industries Limited")
	assert.Contains(t, out, "**Total Share Issue:** 100,000")
	assert.Contains(t, out, "**Total Investors Extracted:** 3")
	assert.Contains(t, out, "**Total Extracted Shares:** 100,000")
	assert.Contains(t, out, "**Total Extracted %:** 100.00%")
}

func TestInvestorMarkdown_NoOthersRowWhenFullyAccounted(t *testing.T) {
	ex := &InvestorExtraction{
		TotalShareIssue: 1000,
		Investors: []Investor{
			{Name: "Sole Holder", Shares: 1000, Category: "Promoter"},
		},
	}

	out := InvestorMarkdown(ex, nil)
	assert.NotContains(t, out, "Others")
	assert.Contains(t, out, "| Sole Holder | 1,000 | 100.00% | Promoter |")
}

func TestInvestorMarkdown_KeepsReportedPercentWithoutTotal(t *testing.T) {
	ex := &InvestorExtraction{
		Investors: []Investor{
			{Name: "Alpha Capital", Shares: 500, PreIssuePercent: "12.5%", Category: "FII"},
			{Name: "Beta Partners", Shares: 300, Category: "AIF"},
		},
	}

	out := InvestorMarkdown(ex, nil)

	// No total share issue, so reported percentages survive and blanks
	// fall back to 0%.
	assert.Contains(t, out, "| Alpha Capital | 500 | 12.5% | FII |")
	assert.Contains(t, out, "| Beta Partners | 300 | 0% | AIF |")
	assert.Contains(t, out, "| **TOTAL** | **800** | **12.50%** | - |")
}

func TestInvestorMarkdown_MarksTargetEntities(t *testing.T) {
	ex := &InvestorExtraction{
		TotalShareIssue: 1000,
		Investors: []Investor{
			{Name: "Horizon Growth Fund II", Shares: 600, Category: "AIF"},
			{Name: "Beta Partners", Shares: 400, Category: "FII"},
		},
	}

	out := InvestorMarkdown(ex, []string{"horizon growth"})
	assert.Contains(t, out, "| **Horizon Growth Fund II** *(target)* | 600 | 60.00% | AIF |")
	assert.Contains(t, out, "| Beta Partners | 400 | 40.00% | FII |")
}

func TestParsePercent(t *testing.T) {
	assert.Equal(t, 12.34, parsePercent("12.34%"))
	assert.Equal(t, 5.0, parsePercent(" 5 % "))
	assert.Equal(t, 0.0, parsePercent(""))
	assert.Equal(t, 0.0, parsePercent("n/a"))
}

func TestMatchesTarget(t *testing.T) {
	targets := []string{"Horizon Growth", "  ", "beta"}

	assert.True(t, matchesTarget("Horizon Growth Fund II", targets))
	assert.True(t, matchesTarget("BETA PARTNERS", targets))
	// Containment also holds when the name is inside the target.
	assert.True(t, matchesTarget("Horizon", targets))
	assert.False(t, matchesTarget("Gamma Ventures", targets))
	assert.False(t, matchesTarget("Gamma Ventures", nil))
}
