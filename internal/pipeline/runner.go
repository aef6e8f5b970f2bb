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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-ai/summary-server/internal/assemble"
	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/metrics"
	"github.com/finsight-ai/summary-server/internal/retrieval"
)

// Runner drives a single summarization run through its stages:
// parallel extraction and drafting, then validation with concurrent
// research, then document assembly.
type Runner struct {
	name       string
	retriever  *retrieval.Orchestrator
	completion llm.CompletionProvider
	research   llm.CompletionProvider
	prompts    config.PromptsConfig
	anchors    config.AnchorsConfig
	subqueries []string
	maxTokens  int
	logger     *slog.Logger
}

// NewRunner creates a runner for one configured pipeline. research may
// be nil when the pipeline has no research provider.
func NewRunner(
	name string,
	retriever *retrieval.Orchestrator,
	completion llm.CompletionProvider,
	research llm.CompletionProvider,
	cfg *config.Pipeline,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		name:       name,
		retriever:  retriever,
		completion: completion,
		research:   research,
		prompts:    cfg.Prompts,
		anchors:    cfg.Anchors,
		subqueries: cfg.Retrieval.Subqueries,
		maxTokens:  cfg.MaxTokens,
		logger:     logger,
	}
}

// Run executes the full pipeline for one document set. A run fails
// outright only when every stage-one task fails or the draft cannot be
// produced; individual task failures degrade the result instead.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New()

	opts := DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	rc := &RunContext{
		RunID:      runID,
		Filter:     retrieval.Filter(req.Filter),
		Partition:  req.Partition,
		Options:    opts,
		Retriever:  r.retriever,
		Completion: r.completion,
		Research:   r.research,
		Prompts:    r.prompts,
		Subqueries: r.subqueries,
		MaxTokens:  r.maxTokens,
		Logger:     r.logger.With("run_id", runID),
	}

	result, err := r.run(ctx, rc)
	status := "error"
	if result != nil {
		result.RunID = runID
		result.DurationMS = time.Since(start).Milliseconds()
		status = result.Status
		metrics.TokensUsed.WithLabelValues(r.name, "prompt").
			Add(float64(result.Usage.PromptTokens))
		metrics.TokensUsed.WithLabelValues(r.name, "completion").
			Add(float64(result.Usage.CompletionTokens))
		for _, task := range result.FailedTasks {
			metrics.TaskFailures.WithLabelValues(r.name, task).Inc()
		}
	}
	metrics.RunsTotal.WithLabelValues(r.name, status).Inc()
	metrics.RunDuration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())
	return result, err
}

func (r *Runner) run(ctx context.Context, rc *RunContext) (*RunResult, error) {
	result := &RunResult{Status: StatusSuccess}

	// Stage one: the draft and both extraction agents run concurrently.
	draft := &draftTask{}
	stageOne := []Task{draft}
	if rc.Options.ExtractionEnabled {
		stageOne = append(stageOne, newInvestorTask(rc), newCapitalTask(rc))
	}

	stageResults := runParallel(ctx, rc, stageOne)

	failed := 0
	for _, res := range stageResults {
		result.Usage.Add(res.Usage)
		if res.Err != nil {
			failed++
			result.FailedTasks = append(result.FailedTasks, res.Name)
			rc.Logger.Error("task failed", "task", res.Name, "error", res.Err)
			// A lost extraction degrades the run; only the draft can
			// fail it outright, handled below.
			if res.Name != TaskDraft {
				result.Status = StatusDegraded
			}
		}
	}
	if failed == len(stageResults) && len(stageResults) > 1 {
		return result.withStatus("error"), ErrAllExtractionFailed
	}

	draftRes := stageResults[TaskDraft]
	if draftRes.Err != nil {
		return result.withStatus("error"), fmt.Errorf("%w: %v", ErrDraftFailed, draftRes.Err)
	}
	if draft.bundle != nil && draft.bundle.Degraded {
		rc.Logger.Warn("retrieval degraded for draft context")
		result.Status = StatusDegraded
	}

	investorMD, capitalMD, subject := r.renderExtractions(rc, stageResults, result)

	// Stage two: validation of the draft, with research running
	// alongside it on its own goroutine.
	var (
		researchRes TaskResult
		researchWG  sync.WaitGroup
	)
	if rc.Options.ResearchEnabled && rc.Research != nil {
		task := &researchTask{subject: subject}
		researchWG.Add(1)
		go func() {
			defer researchWG.Done()
			researchRes = runTask(ctx, rc, task)
		}()
	}

	document := draftRes.Output
	if rc.Options.ValidationEnabled {
		res := runTask(ctx, rc, &validateTask{draft: draftRes.Output})
		result.Usage.Add(res.Usage)
		if res.Err != nil {
			// The unvalidated draft is still a usable document.
			rc.Logger.Warn("validation failed, keeping draft", "error", res.Err)
			result.FailedTasks = append(result.FailedTasks, TaskValidation)
			result.Status = StatusDegraded
		} else {
			document = res.Output
		}
	}

	researchWG.Wait()
	researchMD := ""
	if rc.Options.ResearchEnabled && rc.Research != nil {
		result.Usage.Add(researchRes.Usage)
		if researchRes.Err != nil {
			rc.Logger.Error("task failed", "task", TaskResearch, "error", researchRes.Err)
			result.FailedTasks = append(result.FailedTasks, TaskResearch)
			result.Status = StatusDegraded
		} else {
			researchMD = r.renderResearch(rc, researchRes.Output, result)
		}
	}

	// Assembly: splice the extraction tables and the research report
	// into the validated document at their anchor sections.
	if investorMD != "" || capitalMD != "" {
		fragment := joinFragments(investorMD, capitalMD)
		document = assemble.InsertBeforeSection(
			document, fragment, r.anchors.InvestorSection, r.anchors.InvestorHeading)
	}
	if researchMD != "" {
		document = assemble.InsertBeforeSection(
			document, researchMD, r.anchors.ResearchSection, r.anchors.ResearchHeading)
	}

	result.Document = assemble.TimestampHeader(time.Now()) + document
	return result, nil
}

// renderExtractions decodes the stage-one extraction outputs into
// markdown tables. A decode failure degrades the run but never aborts
// it; the research subject falls back to the partition name when the
// investor extraction did not identify the company.
func (r *Runner) renderExtractions(
	rc *RunContext,
	stageResults map[string]TaskResult,
	result *RunResult,
) (investorMD, capitalMD, subject string) {
	subject = rc.Partition

	if res, ok := stageResults[TaskInvestor]; ok && res.Err == nil {
		var ex assemble.InvestorExtraction
		if err := decodeJSON(res.Output, &ex); err != nil {
			rc.Logger.Warn("investor extraction unparseable", "error", err)
			result.FailedTasks = append(result.FailedTasks, TaskInvestor)
			result.Status = StatusDegraded
		} else {
			investorMD = assemble.InvestorMarkdown(&ex, rc.Options.TargetEntities)
			if ex.CompanyName != "" {
				subject = ex.CompanyName
			}
		}
	}

	if res, ok := stageResults[TaskCapital]; ok && res.Err == nil {
		var ex assemble.CapitalExtraction
		if err := decodeJSON(res.Output, &ex); err != nil {
			rc.Logger.Warn("capital extraction unparseable", "error", err)
			result.FailedTasks = append(result.FailedTasks, TaskCapital)
			result.Status = StatusDegraded
		} else {
			capitalMD = assemble.CapitalMarkdown(&ex, rc.Options.IncludeValuation)
		}
	}
	return investorMD, capitalMD, subject
}

func (r *Runner) renderResearch(rc *RunContext, output string, result *RunResult) string {
	var report assemble.ResearchReport
	if err := decodeJSON(output, &report); err != nil {
		rc.Logger.Warn("research report unparseable", "error", err)
		result.FailedTasks = append(result.FailedTasks, TaskResearch)
		result.Status = StatusDegraded
		return ""
	}
	return assemble.ResearchMarkdown(&report)
}

func (res *RunResult) withStatus(status string) *RunResult {
	res.Status = status
	return res
}

// runParallel fans the tasks out on goroutines and gathers their
// results by task name.
func runParallel(ctx context.Context, rc *RunContext, tasks []Task) map[string]TaskResult {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]TaskResult, len(tasks))
	)
	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			res := runTask(ctx, rc, t)
			mu.Lock()
			results[t.Name()] = res
			mu.Unlock()
		}(task)
	}
	wg.Wait()
	return results
}

// runTask executes one task, converting a panic into a task failure so
// a single misbehaving agent cannot take the run down.
func runTask(ctx context.Context, rc *RunContext, t Task) (res TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			res = TaskResult{
				Name: t.Name(),
				Err:  fmt.Errorf("task panicked: %v", r),
			}
		}
	}()
	return t.Run(ctx, rc)
}

func joinFragments(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// decodeJSON parses a model response as JSON, tolerating a markdown
// code fence around the object.
func decodeJSON(raw string, v interface{}) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(s), v)
}
