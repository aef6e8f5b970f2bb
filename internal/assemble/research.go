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
	"strings"
)

// ResearchFinding is one adverse-media, sanctions, or legal record from
// the research agent.
type ResearchFinding struct {
	// Sanctions fields
	ListName      string `json:"list_name"`
	MatchedEntity string `json:"matched_entity"`
	Role          string `json:"role"`
	Reason        string `json:"reason"`
	ActionDate    string `json:"action_date"`

	// Legal fields
	ActionType   string `json:"action_type"`
	CaseNumber   string `json:"case_number"`
	Parties      string `json:"parties"`
	Jurisdiction string `json:"jurisdiction"`
	Allegations  string `json:"allegations"`
	Penalties    string `json:"penalties"`
	Disposition  string `json:"final_disposition"`

	// Media fields
	Headline    string `json:"headline"`
	Publication string `json:"publication"`
	Date        string `json:"date"`
	Snippet     string `json:"snippet"`
	SourceType  string `json:"source_type"`
	RiskLabel   string `json:"risk_label"`

	RelatedEntities []string `json:"related_entities"`
	SourceURL       string   `json:"source_url"`
}

// ResearchReport is the research agent's structured output.
type ResearchReport struct {
	Metadata struct {
		Company             string   `json:"company"`
		Promoters           string   `json:"promoters"`
		Jurisdictions       []string `json:"jurisdictions_searched"`
		TotalSourcesChecked int      `json:"total_sources_checked"`
	} `json:"metadata"`

	ExecutiveSummary struct {
		AdverseFlag       bool   `json:"adverse_flag"`
		RiskLevel         string `json:"risk_level"`
		KeyFindings       string `json:"key_findings"`
		RecommendedAction string `json:"recommended_action"`
		RedFlagsCount     struct {
			Sanctions          int `json:"sanctions"`
			EnforcementActions int `json:"enforcement_actions"`
			CriminalCases      int `json:"criminal_cases"`
			HighRiskMedia      int `json:"high_risk_media"`
		} `json:"red_flags_count"`
	} `json:"executive_summary"`

	DetailedFindings struct {
		Sanctions []ResearchFinding `json:"layer1_sanctions"`
		Legal     []ResearchFinding `json:"layer2_legal_regulatory"`
		Media     []ResearchFinding `json:"layer3_osint_media"`
	} `json:"detailed_findings"`

	RiskAssessment struct {
		FinancialCrime       string   `json:"financial_crime_risk"`
		RegulatoryCompliance string   `json:"regulatory_compliance_risk"`
		Reputational         string   `json:"reputational_risk"`
		Sanctions            string   `json:"sanctions_risk"`
		Litigation           string   `json:"litigation_risk"`
		OverallRiskScore     float64  `json:"overall_risk_score"`
		RiskFactors          []string `json:"risk_factors"`
	} `json:"risk_assessment"`

	EntityNetwork struct {
		AssociatedCompanies []string `json:"associated_companies"`
		AssociatedPersons   []string `json:"associated_persons"`
		BeneficialOwners    []string `json:"beneficial_owners_identified"`
		RelatedEntities     []string `json:"related_entities_in_adverse_actions"`
	} `json:"entity_network"`

	NextSteps []string `json:"next_steps"`
	Gaps      []string `json:"gaps_and_limitations"`
}

// actionBadges maps the agent's recommended_action codes to display text.
var actionBadges = map[string]string{
	"proceed":                "Proceed",
	"proceed_with_caution":   "Proceed with Caution",
	"enhanced_due_diligence": "Enhanced Due Diligence Required",
	"do_not_proceed":         "Do Not Proceed",
}

// ResearchMarkdown renders the research report: summary table, red flag
// counts, layered findings, risk assessment, and entity network.
func ResearchMarkdown(r *ResearchReport) string {
	if r == nil {
		return ""
	}

	company := r.Metadata.Company
	if company == "" {
		company = "Unknown Company"
	}
	riskLevel := r.ExecutiveSummary.RiskLevel
	if riskLevel == "" {
		riskLevel = "Not Rated"
	}
	adverse := "NO"
	if r.ExecutiveSummary.AdverseFlag {
		adverse = "YES"
	}
	action := r.ExecutiveSummary.RecommendedAction
	if badge, ok := actionBadges[action]; ok {
		action = badge
	} else if action == "" {
		action = "N/A"
	}

	promoters := orNA(r.Metadata.Promoters)
	keyFindings := r.ExecutiveSummary.KeyFindings
	if keyFindings == "" {
		keyFindings = "No findings available."
	}

	flags := r.ExecutiveSummary.RedFlagsCount

	var sb strings.Builder
	sb.WriteString("\n| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Company | %s |\n", company)
	fmt.Fprintf(&sb, "| Adverse Flag | %s |\n", adverse)
	fmt.Fprintf(&sb, "| Risk Level | %s |\n\n", riskLevel)
	fmt.Fprintf(&sb, "**Promoters/Key Persons:** %s\n\n", promoters)
	fmt.Fprintf(&sb, "**Key Findings:** %s\n\n", keyFindings)
	fmt.Fprintf(&sb, "**Recommended Action:** **%s**\n\n", action)

	sb.WriteString("### Red Flags Summary\n\n")
	sb.WriteString("| Category | Count |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Sanctions | %d |\n", flags.Sanctions)
	fmt.Fprintf(&sb, "| Enforcement Actions | %d |\n", flags.EnforcementActions)
	fmt.Fprintf(&sb, "| Criminal Cases | %d |\n", flags.CriminalCases)
	fmt.Fprintf(&sb, "| High-Risk Media | %d |\n\n", flags.HighRiskMedia)

	sb.WriteString("---\n\n## Investigation Scope\n\n")
	fmt.Fprintf(&sb, "**Jurisdictions:** %s\n\n", strings.Join(r.Metadata.Jurisdictions, ", "))
	fmt.Fprintf(&sb, "**Total Sources Checked:** %d\n\n", r.Metadata.TotalSourcesChecked)

	sb.WriteString("---\n\n## Detailed Findings\n\n")
	sb.WriteString("### Layer 1: Sanctions & Debarment\n")
	sb.WriteString(formatFindings(r.DetailedFindings.Sanctions, findingSanctions))
	sb.WriteString("\n### Layer 2: Legal & Regulatory Actions\n")
	sb.WriteString(formatFindings(r.DetailedFindings.Legal, findingLegal))
	sb.WriteString("\n### Layer 3: OSINT & Media Intelligence\n")
	sb.WriteString(formatFindings(r.DetailedFindings.Media, findingMedia))

	sb.WriteString("\n---\n\n## Multi-Dimensional Risk Assessment\n\n")
	sb.WriteString("| Risk Category | Level |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Financial Crime | %s |\n", orNA(r.RiskAssessment.FinancialCrime))
	fmt.Fprintf(&sb, "| Regulatory Compliance | %s |\n", orNA(r.RiskAssessment.RegulatoryCompliance))
	fmt.Fprintf(&sb, "| Reputational | %s |\n", orNA(r.RiskAssessment.Reputational))
	fmt.Fprintf(&sb, "| Sanctions | %s |\n", orNA(r.RiskAssessment.Sanctions))
	fmt.Fprintf(&sb, "| Litigation | %s |\n\n", orNA(r.RiskAssessment.Litigation))
	fmt.Fprintf(&sb, "**Overall Risk Score:** %.0f/10\n", r.RiskAssessment.OverallRiskScore)

	if len(r.RiskAssessment.RiskFactors) > 0 {
		sb.WriteString("\n### Key Risk Factors\n\n")
		for _, f := range r.RiskAssessment.RiskFactors {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	sb.WriteString("\n---\n")

	network := r.EntityNetwork
	if len(network.AssociatedCompanies)+len(network.AssociatedPersons)+
		len(network.BeneficialOwners)+len(network.RelatedEntities) > 0 {
		sb.WriteString("\n## Entity Network\n\n")
		writeEntityList(&sb, "Associated Companies", network.AssociatedCompanies)
		writeEntityList(&sb, "Associated Persons", network.AssociatedPersons)
		writeEntityList(&sb, "Beneficial Owners", network.BeneficialOwners)
		writeEntityList(&sb, "Related Entities in Adverse Actions", network.RelatedEntities)
		sb.WriteString("---\n")
	}

	if len(r.NextSteps) > 0 {
		sb.WriteString("\n## Recommended Next Steps\n\n")
		for i, step := range r.NextSteps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
		sb.WriteString("\n---\n")
	}

	if len(r.Gaps) > 0 {
		sb.WriteString("\n## Investigation Gaps & Limitations\n\n")
		for _, gap := range r.Gaps {
			fmt.Fprintf(&sb, "- %s\n", gap)
		}
		sb.WriteString("\n---\n")
	}

	sb.WriteString("\n## Footer\n\n> This report was generated using automated OSINT and regulatory database searches. All findings should be independently verified.\n")
	return sb.String()
}

// findingKind selects which fields of a finding are rendered.
type findingKind int

const (
	findingSanctions findingKind = iota
	findingLegal
	findingMedia
)

// formatFindings renders one layer of findings.
func formatFindings(items []ResearchFinding, kind findingKind) string {
	if len(items) == 0 {
		switch kind {
		case findingSanctions:
			return " No sanctions records found\n"
		case findingLegal:
			return " No legal records found\n"
		default:
			return " No media records found\n"
		}
	}

	var sb strings.Builder
	for _, item := range items {
		switch kind {
		case findingSanctions:
			fmt.Fprintf(&sb, "**List:** %s\n\n", orNA(item.ListName))
			fmt.Fprintf(&sb, "**Matched Entity:** %s\n\n", orNA(item.MatchedEntity))
			fmt.Fprintf(&sb, "**Role:** %s\n\n", orNA(item.Role))
			fmt.Fprintf(&sb, "**Reason:** %s\n\n", orNA(item.Reason))
			if item.ActionDate != "" {
				fmt.Fprintf(&sb, "**Date:** %s\n\n", item.ActionDate)
			}

		case findingLegal:
			fmt.Fprintf(&sb, "**Type:** %s\n\n", orNA(item.ActionType))
			if item.CaseNumber != "" {
				fmt.Fprintf(&sb, "**Case Number:** %s\n\n", item.CaseNumber)
			}
			fmt.Fprintf(&sb, "**Parties:** %s\n\n", orNA(item.Parties))
			if item.Jurisdiction != "" {
				fmt.Fprintf(&sb, "**Jurisdiction:** %s\n\n", item.Jurisdiction)
			}
			fmt.Fprintf(&sb, "**Allegations:** %s\n\n", orNA(item.Allegations))
			if item.Penalties != "" {
				fmt.Fprintf(&sb, "**Penalties:** %s\n\n", item.Penalties)
			}
			fmt.Fprintf(&sb, "**Status:** %s\n\n", orNA(item.Disposition))

		case findingMedia:
			fmt.Fprintf(&sb, "**Headline:** %s\n\n", orNA(item.Headline))
			if item.Publication != "" {
				fmt.Fprintf(&sb, "**Publication:** %s\n\n", item.Publication)
			}
			if item.Date != "" {
				fmt.Fprintf(&sb, "**Date:** %s\n\n", item.Date)
			}
			fmt.Fprintf(&sb, "**Summary:** %s\n\n", orNA(item.Snippet))
			fmt.Fprintf(&sb, "**Source Type:** %s | **Risk Level:** %s\n\n",
				orNA(item.SourceType), orNA(item.RiskLabel))
		}

		if len(item.RelatedEntities) > 0 {
			fmt.Fprintf(&sb, "**Related Entities:** %s\n\n",
				strings.Join(item.RelatedEntities, ", "))
		}
		if item.SourceURL != "" {
			fmt.Fprintf(&sb, "**Source:** [%s](%s)\n\n", item.SourceURL, item.SourceURL)
		}

		sb.WriteString("---\n\n")
	}
	return sb.String()
}

// writeEntityList writes a bold label and bullet list when entries exist.
func writeEntityList(sb *strings.Builder, label string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n", label)
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s\n", e)
	}
	sb.WriteString("\n")
}

// orNA substitutes "N/A" for empty strings.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
