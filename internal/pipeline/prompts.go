//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

// DefaultSubqueries is the sub-query set the draft task retrieves with
// when the pipeline config does not supply its own. Each targets one
// slice of a prospectus.
var DefaultSubqueries = []string{
	"Company details: name, former names, CIN, incorporation date, registered and corporate offices, business model, promoters, lead managers, registrar, bankers, and auditors with any auditor changes.",
	"Offer structure: fresh issue and offer for sale sizes, total issue size, objects of the issue, fund allocation, pre- and post-issue shareholding pattern, promoter dilution, and capacity utilization.",
	"Pre-IPO placements and preferential allotments: dates, shares, price, amount raised, pre- and post-money valuations, investor identities and categories, lock-ins, and participating PE/VC firms or institutions.",
	"Outstanding litigation involving the company, promoters, directors, and subsidiaries; contingent liabilities; related party transactions; concentration risks; industry risks; and listed peer comparison tables.",
	"Revenue detail: revenue from operations, bifurcation by geography, segment, and product; top customers and suppliers; key raw materials; capacity and utilization; order book; and authorized share capital history.",
	"Intellectual property, material licenses and approvals, long-term contracts, monitoring agency, commoditization versus customization, and key financial indicators and ratios.",
	"Operational footprint: offices, warehouses, and manufacturing facilities with ownership; employee strength; subsidiaries, associates, and joint ventures; and facilities leased from promoter group entities.",
	"Restated financials for all periods: revenue, EBITDA and margins, PAT and margins, ROAE, ROCE, RONW, debt-to-equity, interest coverage, cash flow from operations, and receivables ratios.",
	"Promoters, promoter group, and board: names, DIN, age, experience, term, remuneration, key managerial personnel, corporate milestones, wilful defaulter screening, and struck-off company relationships.",
	"Objects of the issue in detail: capex plans, working capital, debt repayment, utilization timelines, industry overview with market size and CAGR, government initiatives, and peer KPI comparison.",
}

// Default system prompts per agent. Pipeline config overrides these
// verbatim; the server treats prompt text as opaque.
const (
	defaultInvestorPrompt = `You are a financial document extraction agent. Extract the complete, verbatim pre-issue shareholding table from the retrieved prospectus context. Respond with a single JSON object: company_name, total_share_issue, and section_a_extracted_investors, where each investor has investor_name, number_of_equity_shares, percentage_of_pre_issue_capital, and investor_category. Extract only what the context states; never invent rows.`

	defaultCapitalPrompt = `You are a financial document extraction agent. Extract the full equity share capital history from the retrieved prospectus context. Respond with a single JSON object holding calculation_parameters: table_data.markdown_table reproduces the capital history as a markdown table, and premium_rounds lists every allotment above face value with row_number, date_of_allotment, nature_of_allotment, shares_allotted, face_value, issue_price, and cumulative_equity_shares.`

	defaultDraftPrompt = `You are an investment analyst writing a structured prospectus summary for fund managers. Using only the retrieved context, produce a markdown document with numbered sections covering company overview, offer structure, pre-IPO investments, risks and litigation, revenue detail, operations, financial performance, management, objects of the issue, industry outlook, peer comparison, and investment insights for fund managers. Mark any data point absent from the context as not disclosed.`

	defaultValidatorPrompt = `You are a verification agent. Compare the draft summary against the retrieved context. Correct figures that contradict the context, remove claims without support, and keep the document structure and headings untouched. Return the full corrected markdown document and nothing else.`

	defaultResearchPrompt = `You are an adverse-media and regulatory research agent. Investigate the company and its promoters across sanctions lists, enforcement actions, criminal cases, and high-risk media. Respond with a single JSON object with metadata, executive_summary (including red_flags_count and recommended_action), detailed_findings split into layer1_sanctions, layer2_legal_regulatory, and layer3_osint_media, risk_assessment, entity_network, next_steps, and gaps_and_limitations.`

	defaultQueryPrompt = `You are an assistant answering questions about a company's prospectus. Answer from the provided context only; when the context does not contain the answer, say so. Be precise with figures and cite the section they come from when possible.`
)

// effectivePrompt returns the configured prompt or the fallback.
func effectivePrompt(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
