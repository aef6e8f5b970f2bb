//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/retrieval"
)

// Task names, used for failure reporting and metrics labels.
const (
	TaskInvestor   = "investor_extraction"
	TaskCapital    = "capital_extraction"
	TaskDraft      = "draft_summary"
	TaskValidation = "validation"
	TaskResearch   = "research"
)

const (
	investorQuery = "Complete pre-issue shareholding pattern: every investor with name, number of equity shares held, percentage of pre-issue capital, and investor category, plus the total issued share count."
	capitalQuery  = "Equity share capital history of the company: every allotment with date, nature of allotment, number of shares allotted, face value, issue price, and cumulative equity shares."
)

// retrieveOne runs a single-query retrieval against the pipeline stores.
func retrieveOne(ctx context.Context, rc *RunContext, query string) (*retrieval.ContextBundle, error) {
	queries := []retrieval.Query{{Text: query, Partition: rc.Partition}}
	return rc.Retriever.Retrieve(ctx, queries, rc.Filter)
}

// complete sends a single-turn completion built from a system prompt and
// retrieved context.
func complete(
	ctx context.Context,
	provider llm.CompletionProvider,
	systemPrompt, userContent string,
	maxTokens int,
	jsonResponse bool,
) (*llm.CompletionResponse, error) {
	return provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: userContent}},
		MaxTokens:    maxTokens,
		Temperature:  -1,
		JSONResponse: jsonResponse,
	})
}

// extractionTask retrieves context for one focused query and asks the
// agent model for a JSON extraction. Both stage-one extraction agents
// are instances of it.
type extractionTask struct {
	name   string
	query  string
	prompt string
}

func (t *extractionTask) Name() string { return t.name }

func (t *extractionTask) Run(ctx context.Context, rc *RunContext) TaskResult {
	bundle, err := retrieveOne(ctx, rc, t.query)
	if err != nil {
		return TaskResult{Name: t.name, Err: fmt.Errorf("retrieval: %w", err)}
	}
	if bundle.Empty() {
		return TaskResult{Name: t.name, Err: fmt.Errorf("no context retrieved for %s", t.name)}
	}

	resp, err := complete(ctx, rc.Completion, t.prompt, bundle.Text, rc.MaxTokens, true)
	if err != nil {
		return TaskResult{Name: t.name, Err: fmt.Errorf("completion: %w", err)}
	}
	return TaskResult{Name: t.name, Output: resp.Content, Usage: resp.Usage}
}

func newInvestorTask(rc *RunContext) *extractionTask {
	return &extractionTask{
		name:   TaskInvestor,
		query:  investorQuery,
		prompt: effectivePrompt(rc.Prompts.Investor, defaultInvestorPrompt),
	}
}

func newCapitalTask(rc *RunContext) *extractionTask {
	return &extractionTask{
		name:   TaskCapital,
		query:  capitalQuery,
		prompt: effectivePrompt(rc.Prompts.Capital, defaultCapitalPrompt),
	}
}

// subqueryQueries expands the pipeline's sub-query set into retrieval
// queries against the run's partition.
func subqueryQueries(rc *RunContext) []retrieval.Query {
	subqueries := rc.Subqueries
	if len(subqueries) == 0 {
		subqueries = DefaultSubqueries
	}

	queries := make([]retrieval.Query, 0, len(subqueries))
	for _, q := range subqueries {
		queries = append(queries, retrieval.Query{Text: q, Partition: rc.Partition})
	}
	return queries
}

// draftTask retrieves context for every sub-query and writes the base
// summary document. The merged context bundle is kept on the task so the
// runner can inspect its degradation state.
type draftTask struct {
	bundle *retrieval.ContextBundle
}

func (t *draftTask) Name() string { return TaskDraft }

func (t *draftTask) Run(ctx context.Context, rc *RunContext) TaskResult {
	bundle, err := rc.Retriever.Retrieve(ctx, subqueryQueries(rc), rc.Filter)
	if err != nil {
		return TaskResult{Name: TaskDraft, Err: fmt.Errorf("retrieval: %w", err)}
	}
	if bundle.Empty() {
		return TaskResult{Name: TaskDraft, Err: fmt.Errorf("no context retrieved for any sub-query")}
	}
	t.bundle = bundle

	prompt := effectivePrompt(rc.Prompts.Draft, defaultDraftPrompt)
	resp, err := complete(ctx, rc.Completion, prompt, bundle.Text, rc.MaxTokens, false)
	if err != nil {
		return TaskResult{Name: TaskDraft, Err: fmt.Errorf("completion: %w", err)}
	}
	return TaskResult{Name: TaskDraft, Output: resp.Content, Usage: resp.Usage}
}

// validateTask re-retrieves context with the draft's query set and checks
// the draft against it, returning a corrected document.
type validateTask struct {
	draft string
}

func (t *validateTask) Name() string { return TaskValidation }

func (t *validateTask) Run(ctx context.Context, rc *RunContext) TaskResult {
	bundle, err := rc.Retriever.Retrieve(ctx, subqueryQueries(rc), rc.Filter)
	if err != nil {
		return TaskResult{Name: TaskValidation, Err: fmt.Errorf("retrieval: %w", err)}
	}
	if bundle.Empty() {
		return TaskResult{Name: TaskValidation, Err: fmt.Errorf("no context retrieved for validation")}
	}

	var sb strings.Builder
	sb.WriteString("## Retrieved Context\n\n")
	sb.WriteString(bundle.Text)
	sb.WriteString("\n\n## Draft Summary\n\n")
	sb.WriteString(t.draft)

	prompt := effectivePrompt(rc.Prompts.Validator, defaultValidatorPrompt)
	resp, err := complete(ctx, rc.Completion, prompt, sb.String(), rc.MaxTokens, false)
	if err != nil {
		return TaskResult{Name: TaskValidation, Err: fmt.Errorf("completion: %w", err)}
	}
	if strings.TrimSpace(resp.Content) == "" {
		return TaskResult{Name: TaskValidation, Err: fmt.Errorf("validator returned an empty document")}
	}
	return TaskResult{Name: TaskValidation, Output: resp.Content, Usage: resp.Usage}
}

// researchTask asks the research model for an adverse-findings report on
// the company and promoters named by the stage-one extractions. It needs
// no retrieval of its own.
type researchTask struct {
	subject string
}

func (t *researchTask) Name() string { return TaskResearch }

func (t *researchTask) Run(ctx context.Context, rc *RunContext) TaskResult {
	if rc.Research == nil {
		return TaskResult{Name: TaskResearch, Err: fmt.Errorf("no research provider configured")}
	}
	subject := strings.TrimSpace(t.subject)
	if subject == "" {
		return TaskResult{Name: TaskResearch, Err: fmt.Errorf("no company identified for research")}
	}

	prompt := effectivePrompt(rc.Prompts.Research, defaultResearchPrompt)
	resp, err := complete(ctx, rc.Research, prompt, subject, rc.MaxTokens, true)
	if err != nil {
		return TaskResult{Name: TaskResearch, Err: fmt.Errorf("completion: %w", err)}
	}
	return TaskResult{Name: TaskResearch, Output: resp.Content, Usage: resp.Usage}
}
