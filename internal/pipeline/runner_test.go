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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/retrieval"
	"github.com/finsight-ai/summary-server/internal/vectorstore"
)

type fakeCompletionProvider struct {
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (f *fakeCompletionProvider) Complete(
	ctx context.Context,
	req llm.CompletionRequest,
) (*llm.CompletionResponse, error) {
	return f.CompleteFunc(ctx, req)
}

func (f *fakeCompletionProvider) CompleteStream(
	ctx context.Context,
	req llm.CompletionRequest,
) (<-chan llm.StreamChunk, <-chan error) {
	ch := make(chan llm.StreamChunk)
	errCh := make(chan error, 1)
	close(ch)
	close(errCh)
	return ch, errCh
}

func (f *fakeCompletionProvider) ModelName() string { return "fake-agent" }

type fakeSearcher struct {
	SearchFunc func(ctx context.Context, embedding []float32, partition string, filter vectorstore.Filter, topK int) ([]vectorstore.Chunk, error)
}

func (f *fakeSearcher) Search(
	ctx context.Context,
	embedding []float32,
	partition string,
	filter vectorstore.Filter,
	topK int,
) ([]vectorstore.Chunk, error) {
	return f.SearchFunc(ctx, embedding, partition, filter, topK)
}

func (f *fakeSearcher) FetchChunks(
	ctx context.Context,
	partition string,
	filter vectorstore.Filter,
) (map[string]string, error) {
	return nil, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 3 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

// oneChunkSearcher always finds a single context chunk.
func oneChunkSearcher() *fakeSearcher {
	return &fakeSearcher{
		SearchFunc: func(ctx context.Context, emb []float32, partition string, filter vectorstore.Filter, topK int) ([]vectorstore.Chunk, error) {
			return []vectorstore.Chunk{{ID: "c1", Content: "context chunk", Score: 0.9}}, nil
		},
	}
}

const draftDocument = `# Acme Industries DRHP Summary

## FINANCIAL PERFORMANCE

Revenue grew.

## INVESTMENT INSIGHTS FOR FUND MANAGERS

Insights here.
`

const investorJSON = `{
	"company_name": "Acme Industries Limited",
	"total_share_issue": 1000,
	"section_a_extracted_investors": [
		{"investor_name": "Alpha Capital", "number_of_equity_shares": 1000, "investor_category": "FII"}
	]
}`

const capitalJSON = `{
	"calculation_parameters": {
		"premium_rounds": [],
		"table_data": {"markdown_table": "| Date | Shares |\n|---|---|\n| 01/01/2020 | 100 |"}
	}
}`

const researchJSON = `{
	"metadata": {"company": "Acme Industries Limited"},
	"executive_summary": {"risk_level": "LOW", "recommended_action": "proceed"}
}`

// routedCompletion answers each agent by its system prompt.
func routedCompletion(t *testing.T) *fakeCompletionProvider {
	t.Helper()
	return &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			usage := llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
			switch req.SystemPrompt {
			case defaultInvestorPrompt:
				return &llm.CompletionResponse{Content: investorJSON, Usage: usage}, nil
			case defaultCapitalPrompt:
				return &llm.CompletionResponse{Content: capitalJSON, Usage: usage}, nil
			case defaultDraftPrompt:
				return &llm.CompletionResponse{Content: draftDocument, Usage: usage}, nil
			case defaultValidatorPrompt:
				return &llm.CompletionResponse{Content: "VALIDATED\n" + draftDocument, Usage: usage}, nil
			default:
				t.Errorf("unexpected system prompt: %.40s", req.SystemPrompt)
				return nil, fmt.Errorf("unexpected prompt")
			}
		},
	}
}

func newTestRunner(searcher retrieval.Searcher, completion, research llm.CompletionProvider) *Runner {
	orchestrator := retrieval.NewOrchestrator(searcher, &fakeEmbedder{}, nil,
		config.RetrievalConfig{TopK: 5, RerankN: 3}, nil)
	cfg := &config.Pipeline{
		Anchors: config.AnchorsConfig{
			InvestorSection: config.DefaultInvestorSection,
			InvestorHeading: config.DefaultInvestorHeading,
			ResearchSection: config.DefaultResearchSection,
			ResearchHeading: config.DefaultResearchHeading,
		},
	}
	return NewRunner("test", orchestrator, completion, research, cfg,
		slog.New(slog.DiscardHandler))
}

func TestRunner_FullRun(t *testing.T) {
	var researchSubject string
	research := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			researchSubject = req.Messages[len(req.Messages)-1].Content
			return &llm.CompletionResponse{
				Content: researchJSON,
				Usage:   llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
	}

	runner := newTestRunner(oneChunkSearcher(), routedCompletion(t), research)

	result, err := runner.Run(context.Background(), RunRequest{Partition: "acme-drhp"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Empty(t, result.FailedTasks)

	// Draft, investor, capital, validation, research.
	assert.Equal(t, 50, result.Usage.PromptTokens)
	assert.Equal(t, 25, result.Usage.CompletionTokens)
	assert.Equal(t, 75, result.Usage.TotalTokens)

	// The research subject comes from the investor extraction, not the
	// partition name.
	assert.Equal(t, "Acme Industries Limited", researchSubject)

	doc := result.Document
	assert.True(t, strings.HasPrefix(doc, "---\nDate: "), "missing timestamp header")
	assert.Contains(t, doc, "VALIDATED")

	investorAt := strings.Index(doc, "## "+config.DefaultInvestorHeading)
	financialAt := strings.Index(doc, "## FINANCIAL PERFORMANCE")
	require.True(t, investorAt >= 0 && financialAt >= 0)
	assert.Less(t, investorAt, financialAt, "investor fragment must precede its anchor")

	assert.Contains(t, doc, "| Alpha Capital | 1,000 | 100.00% | FII |")
	assert.Contains(t, doc, "### PART 1: CAPTURED SHARE CAPITAL HISTORY")

	researchAt := strings.Index(doc, "## "+config.DefaultResearchHeading)
	insightsAt := strings.Index(doc, "## INVESTMENT INSIGHTS FOR FUND MANAGERS")
	require.True(t, researchAt >= 0 && insightsAt >= 0)
	assert.Less(t, researchAt, insightsAt, "research fragment must precede its anchor")
	assert.Contains(t, doc, "| Risk Level | LOW |")
}

func TestRunner_DraftOnly(t *testing.T) {
	calls := 0
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls++
			assert.Equal(t, defaultDraftPrompt, req.SystemPrompt)
			return &llm.CompletionResponse{Content: draftDocument}, nil
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	opts := Options{}
	result, err := runner.Run(context.Background(), RunRequest{Options: &opts})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.NotContains(t, result.Document, config.DefaultInvestorHeading)
	assert.Contains(t, result.Document, "Revenue grew.")
}

func TestRunner_DraftFailureAborts(t *testing.T) {
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if req.SystemPrompt == defaultDraftPrompt {
				return nil, errors.New("model unavailable")
			}
			return &llm.CompletionResponse{Content: investorJSON}, nil
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	result, err := runner.Run(context.Background(), RunRequest{})
	require.ErrorIs(t, err, ErrDraftFailed)
	require.NotNil(t, result)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.FailedTasks, TaskDraft)
}

func TestRunner_ExtractionFailureDegrades(t *testing.T) {
	// One extraction agent fails outright; the run must finish with a
	// document but report degraded, not success.
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			switch req.SystemPrompt {
			case defaultInvestorPrompt:
				return nil, errors.New("model unavailable")
			case defaultCapitalPrompt:
				return &llm.CompletionResponse{Content: capitalJSON}, nil
			case defaultValidatorPrompt:
				return &llm.CompletionResponse{Content: "VALIDATED\n" + draftDocument}, nil
			default:
				return &llm.CompletionResponse{Content: draftDocument}, nil
			}
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	result, err := runner.Run(context.Background(), RunRequest{})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.FailedTasks, TaskInvestor)
	assert.NotContains(t, result.FailedTasks, TaskCapital)
	// The surviving extraction still makes it into the document.
	assert.Contains(t, result.Document, "### PART 1: CAPTURED SHARE CAPITAL HISTORY")
	assert.Contains(t, result.Document, "VALIDATED")
}

func TestRunner_DraftOnlyFailureIsDraftError(t *testing.T) {
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	opts := Options{}
	result, err := runner.Run(context.Background(), RunRequest{Options: &opts})
	require.ErrorIs(t, err, ErrDraftFailed)
	assert.NotErrorIs(t, err, ErrAllExtractionFailed)
	require.NotNil(t, result)
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, []string{TaskDraft}, result.FailedTasks)
}

func TestRunner_AllStageOneFailed(t *testing.T) {
	// An empty store starves every stage-one task of context.
	searcher := &fakeSearcher{
		SearchFunc: func(ctx context.Context, emb []float32, partition string, filter vectorstore.Filter, topK int) ([]vectorstore.Chunk, error) {
			return nil, nil
		},
	}
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			t.Error("completion must not be called without context")
			return nil, errors.New("unreachable")
		},
	}
	runner := newTestRunner(searcher, completion, nil)

	result, err := runner.Run(context.Background(), RunRequest{})
	require.ErrorIs(t, err, ErrAllExtractionFailed)
	require.NotNil(t, result)
	assert.Equal(t, "error", result.Status)
	assert.Len(t, result.FailedTasks, 3)
}

func TestRunner_ValidationFallsBackToDraft(t *testing.T) {
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			switch req.SystemPrompt {
			case defaultDraftPrompt:
				return &llm.CompletionResponse{Content: draftDocument}, nil
			case defaultValidatorPrompt:
				return nil, errors.New("validator down")
			default:
				return &llm.CompletionResponse{Content: investorJSON}, nil
			}
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	opts := Options{ValidationEnabled: true}
	result, err := runner.Run(context.Background(), RunRequest{Options: &opts})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.FailedTasks, TaskValidation)
	assert.Contains(t, result.Document, "Revenue grew.")
}

func TestRunner_UnparseableExtractionDegrades(t *testing.T) {
	completion := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			switch req.SystemPrompt {
			case defaultInvestorPrompt:
				return &llm.CompletionResponse{Content: "this is not json"}, nil
			case defaultCapitalPrompt:
				return &llm.CompletionResponse{Content: capitalJSON}, nil
			default:
				return &llm.CompletionResponse{Content: draftDocument}, nil
			}
		},
	}
	runner := newTestRunner(oneChunkSearcher(), completion, nil)

	opts := Options{ExtractionEnabled: true}
	result, err := runner.Run(context.Background(), RunRequest{Options: &opts})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.FailedTasks, TaskInvestor)
	// The capital table still makes it into the document.
	assert.Contains(t, result.Document, "### PART 1: CAPTURED SHARE CAPITAL HISTORY")
	assert.NotContains(t, result.Document, "SECTION A: COMPLETE INVESTOR LIST")
}

func TestRunner_ResearchFailureDegrades(t *testing.T) {
	research := &fakeCompletionProvider{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("research provider down")
		},
	}
	runner := newTestRunner(oneChunkSearcher(), routedCompletion(t), research)

	result, err := runner.Run(context.Background(), RunRequest{Partition: "acme"})
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Contains(t, result.FailedTasks, TaskResearch)
	assert.NotContains(t, result.Document, config.DefaultResearchHeading)
}

func TestRunner_NoResearchProviderIsNotAFailure(t *testing.T) {
	runner := newTestRunner(oneChunkSearcher(), routedCompletion(t), nil)

	result, err := runner.Run(context.Background(), RunRequest{Partition: "acme"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.NotContains(t, result.FailedTasks, TaskResearch)
	assert.NotContains(t, result.Document, config.DefaultResearchHeading)
}

type panickyTask struct{}

func (panickyTask) Name() string { return "panicky" }
func (panickyTask) Run(ctx context.Context, rc *RunContext) TaskResult {
	panic("agent went sideways")
}

func TestRunTask_RecoversPanic(t *testing.T) {
	res := runTask(context.Background(), &RunContext{}, panickyTask{})
	require.Error(t, res.Err)
	assert.Equal(t, "panicky", res.Name)
	assert.Contains(t, res.Err.Error(), "task panicked")
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}

	require.NoError(t, decodeJSON(`{"name": "plain"}`, &out))
	assert.Equal(t, "plain", out.Name)

	require.NoError(t, decodeJSON("```json\n{\"name\": \"fenced\"}\n```", &out))
	assert.Equal(t, "fenced", out.Name)

	require.NoError(t, decodeJSON("```\n{\"name\": \"bare fence\"}\n```", &out))
	assert.Equal(t, "bare fence", out.Name)

	assert.Error(t, decodeJSON("", &out))
	assert.Error(t, decodeJSON("``````", &out))
	assert.Error(t, decodeJSON("not json", &out))
}

func TestJoinFragments(t *testing.T) {
	assert.Equal(t, "a\n\nb", joinFragments("a", "  ", "b", ""))
	assert.Equal(t, "", joinFragments("", "   "))
}
