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
	"log/slog"
	"strings"
	"sync"

	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/llm/factory"
	"github.com/finsight-ai/summary-server/internal/retrieval"
	"github.com/finsight-ai/summary-server/internal/vectorstore"
)

// Manager manages the lifecycle of summarization pipelines.
type Manager struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	config    *config.Config
	logger    *slog.Logger
}

// Pipeline represents a configured pipeline with all providers initialized.
type Pipeline struct {
	name        string
	description string
	config      config.Pipeline
	dbPool      *vectorstore.Pool
	completion  llm.CompletionProvider
	retriever   *retrieval.Orchestrator
	runner      *Runner
	logger      *slog.Logger
}

// ManagerConfig contains configuration for creating a Manager.
type ManagerConfig struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewManager creates a new pipeline manager from configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	return NewManagerWithLogger(ManagerConfig{
		Config: cfg,
		Logger: slog.Default(),
	})
}

// NewManagerWithLogger creates a new pipeline manager with a custom logger.
func NewManagerWithLogger(cfg ManagerConfig) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		pipelines: make(map[string]*Pipeline),
		config:    cfg.Config,
		logger:    logger,
	}

	ctx := context.Background()
	keyLoader := config.NewAPIKeyLoader(cfg.Config.APIKeys)

	for _, pCfg := range cfg.Config.Pipelines {
		// Keys are loaded per pipeline: different pipelines may use
		// different provider combinations.
		apiKeys, err := keyLoader.LoadKeysForPipeline(pCfg)
		if err != nil {
			m.closeAll()
			return nil, fmt.Errorf("failed to load API keys for pipeline %s: %w", pCfg.Name, err)
		}

		p, err := m.createPipeline(ctx, pCfg, apiKeys)
		if err != nil {
			m.closeAll()
			return nil, fmt.Errorf("failed to create pipeline %s: %w", pCfg.Name, err)
		}
		m.pipelines[pCfg.Name] = p
		logger.Info("pipeline created",
			"name", pCfg.Name,
			"embedding_provider", pCfg.EmbeddingLLM.Provider,
			"agent_provider", pCfg.AgentLLM.Provider,
			"research_provider", pCfg.ResearchLLM.Provider,
			"rerank_provider", pCfg.RerankLLM.Provider,
		)
	}

	return m, nil
}

// createPipeline creates a single pipeline with all providers initialized.
func (m *Manager) createPipeline(
	ctx context.Context,
	pCfg config.Pipeline,
	apiKeys *config.LoadedKeys,
) (*Pipeline, error) {
	pipelineLogger := m.logger.With("pipeline", pCfg.Name)

	dbPool, err := vectorstore.NewPool(ctx, pCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	embeddingProv, err := factory.NewEmbeddingProvider(
		pCfg.EmbeddingLLM.Provider,
		pCfg.EmbeddingLLM.Model,
		apiKeys,
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	agentProv, err := factory.NewCompletionProvider(
		pCfg.AgentLLM.Provider,
		pCfg.AgentLLM.Model,
		apiKeys,
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create agent provider: %w", err)
	}

	// Research and rerank providers are optional.
	var researchProv llm.CompletionProvider
	if pCfg.ResearchLLM.Provider != "" {
		researchProv, err = factory.NewCompletionProvider(
			pCfg.ResearchLLM.Provider,
			pCfg.ResearchLLM.Model,
			apiKeys,
		)
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("failed to create research provider: %w", err)
		}
	}

	rerankProv, err := factory.NewRerankProvider(
		pCfg.RerankLLM.Provider,
		pCfg.RerankLLM.Model,
		apiKeys,
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create rerank provider: %w", err)
	}

	store := vectorstore.NewStore(dbPool, pCfg.Chunks)
	reranker := retrieval.NewReranker(rerankProv, pipelineLogger)
	retriever := retrieval.NewOrchestrator(
		store, embeddingProv, reranker, pCfg.Retrieval, pipelineLogger)

	runner := NewRunner(
		pCfg.Name, retriever, agentProv, researchProv, &pCfg, pipelineLogger)

	return &Pipeline{
		name:        pCfg.Name,
		description: pCfg.Description,
		config:      pCfg,
		dbPool:      dbPool,
		completion:  agentProv,
		retriever:   retriever,
		runner:      runner,
		logger:      pipelineLogger,
	}, nil
}

// List returns information about all available pipelines.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		infos = append(infos, Info{
			Name:        p.name,
			Description: p.description,
		})
	}

	return infos
}

// Get retrieves a pipeline by name.
func (m *Manager) Get(name string) (*Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pipelines[name]
	if !ok {
		return nil, ErrPipelineNotFound
	}

	return p, nil
}

// Run executes a full summarization run on the pipeline.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	return p.runner.Run(ctx, req)
}

// Retrieve runs the retrieval cascade for ad-hoc queries without
// invoking any agent.
func (p *Pipeline) Retrieve(
	ctx context.Context,
	req RetrieveRequest,
) (*retrieval.ContextBundle, error) {
	queries := make([]retrieval.Query, 0, len(req.Queries))
	for _, q := range req.Queries {
		queries = append(queries, retrieval.Query{Text: q, Partition: req.Partition})
	}
	return p.retriever.Retrieve(ctx, queries, retrieval.Filter(req.Filter))
}

// Answer runs a single retrieval-augmented question against the
// pipeline's document set.
func (p *Pipeline) Answer(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	bundle, creq, err := p.prepareQuery(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.completion.Complete(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	return &QueryResponse{
		Answer:     resp.Content,
		Degraded:   bundle.Degraded,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// AnswerStream runs a retrieval-augmented question and streams the
// answer as it is generated.
func (p *Pipeline) AnswerStream(
	ctx context.Context,
	req QueryRequest,
) (<-chan StreamChunk, <-chan error) {
	_, creq, err := p.prepareQuery(ctx, req)
	if err != nil {
		errCh := make(chan error, 1)
		chunkCh := make(chan StreamChunk)
		errCh <- err
		close(chunkCh)
		close(errCh)
		return chunkCh, errCh
	}

	chunks, errs := p.completion.CompleteStream(ctx, creq)
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for chunk := range chunks {
			out <- StreamChunk{
				Content:      chunk.Content,
				FinishReason: chunk.FinishReason,
			}
		}
	}()
	return out, errs
}

// prepareQuery runs retrieval for the question and builds the
// completion request shared by Answer and AnswerStream.
func (p *Pipeline) prepareQuery(
	ctx context.Context,
	req QueryRequest,
) (*retrieval.ContextBundle, llm.CompletionRequest, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, llm.CompletionRequest{}, fmt.Errorf("query must not be empty")
	}

	bundle, err := p.retriever.Retrieve(ctx,
		[]retrieval.Query{{Text: req.Query, Partition: req.Partition}},
		retrieval.Filter(req.Filter))
	if err != nil {
		return nil, llm.CompletionRequest{}, fmt.Errorf("retrieval failed: %w", err)
	}

	docs := make([]llm.ContextDocument, 0, len(bundle.Fragments))
	for _, frag := range bundle.Fragments {
		docs = append(docs, llm.ContextDocument{Content: frag})
	}

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	for _, msg := range req.Messages {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: req.Query})

	creq := llm.CompletionRequest{
		SystemPrompt: effectivePrompt(p.config.Prompts.Query, defaultQueryPrompt),
		Messages:     messages,
		MaxTokens:    p.config.MaxTokens,
		Temperature:  -1,
		Context:      docs,
	}
	return bundle, creq, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Description returns the pipeline description.
func (p *Pipeline) Description() string {
	return p.description
}

// Close releases resources associated with the pipeline.
func (p *Pipeline) Close() {
	if p.dbPool != nil {
		p.dbPool.Close()
	}
}

func (m *Manager) closeAll() {
	for _, p := range m.pipelines {
		p.Close()
	}
}

// Close shuts down the manager and releases resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pipelines {
		p.Close()
	}
	m.pipelines = nil

	return nil
}
