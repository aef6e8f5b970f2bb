//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddress != "0.0.0.0" {
		t.Errorf("expected listen address 0.0.0.0, got %s", cfg.Server.ListenAddress)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.TLS.Enabled {
		t.Error("expected TLS disabled by default")
	}
	if cfg.Defaults.Retrieval.TopK != 10 {
		t.Errorf("expected default top_k 10, got %d", cfg.Defaults.Retrieval.TopK)
	}
	if cfg.Defaults.Retrieval.RerankN != 5 {
		t.Errorf("expected default rerank_n 5, got %d", cfg.Defaults.Retrieval.RerankN)
	}
	if len(cfg.Defaults.Retrieval.RelaxDropKeys) != 1 ||
		cfg.Defaults.Retrieval.RelaxDropKeys[0] != "documentName" {
		t.Errorf("unexpected default relax_drop_keys: %v", cfg.Defaults.Retrieval.RelaxDropKeys)
	}
}

// validPipeline returns a minimal pipeline that passes validation.
func validPipeline(name string) Pipeline {
	return Pipeline{
		Name: name,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "finsight",
			SSLMode:  "prefer",
		},
		Chunks: ChunkSource{
			Table: "chunks",
		},
		EmbeddingLLM: LLMConfig{Provider: "openai", Model: "text-embedding-3-small"},
		AgentLLM:     LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipelines = []Pipeline{validPipeline("drhp")}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidate_NoPipelines(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "at least one pipeline") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DuplicatePipelineNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipelines = []Pipeline{validPipeline("drhp"), validPipeline("drhp")}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "duplicate pipeline name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 70000
	cfg.Pipelines = []Pipeline{validPipeline("drhp")}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Errorf("expected server.port error, got: %v", err)
	}
}

func TestValidate_TLSRequiresFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.TLS.Enabled = true
	cfg.Pipelines = []Pipeline{validPipeline("drhp")}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "server.tls.cert_file") ||
		!strings.Contains(err.Error(), "server.tls.key_file") {
		t.Errorf("expected TLS file errors, got: %v", err)
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipelines = []Pipeline{{
		Database: DatabaseConfig{Port: 5432},
	}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"pipelines[0].name",
		"pipelines[0].database.host",
		"pipelines[0].database.database",
		"pipelines[0].chunks.table",
		"pipelines[0].embedding_llm.provider",
		"pipelines[0].agent_llm.provider",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error for %s, got: %v", want, err)
		}
	}
}

func TestValidate_InvalidProviders(t *testing.T) {
	cfg := DefaultConfig()
	p := validPipeline("drhp")
	p.EmbeddingLLM.Provider = "anthropic"
	p.RerankLLM = LLMConfig{Provider: "voyage", Model: "rerank-2"}
	p.ResearchLLM = LLMConfig{Provider: "cohere", Model: "command"}
	cfg.Pipelines = []Pipeline{p}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "embedding_llm.provider") {
		t.Errorf("expected embedding provider error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "rerank_llm.provider: must be one of: cohere") {
		t.Errorf("expected rerank provider error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "research_llm.provider: must be one of: perplexity, openai, anthropic, ollama") {
		t.Errorf("expected research provider error, got: %v", err)
	}
}

func TestValidate_OptionalProvidersMayBeEmpty(t *testing.T) {
	cfg := DefaultConfig()
	p := validPipeline("drhp")
	p.ResearchLLM = LLMConfig{}
	p.RerankLLM = LLMConfig{}
	cfg.Pipelines = []Pipeline{p}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidate_OptionalProviderRequiresModel(t *testing.T) {
	cfg := DefaultConfig()
	p := validPipeline("drhp")
	p.RerankLLM = LLMConfig{Provider: "cohere"}
	cfg.Pipelines = []Pipeline{p}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "rerank_llm.model: required when provider is set") {
		t.Errorf("expected rerank model error, got: %v", err)
	}
}

func TestValidate_RetrievalBounds(t *testing.T) {
	cfg := DefaultConfig()
	p := validPipeline("drhp")
	p.Retrieval.TopK = -1
	p.Retrieval.RerankN = -3
	weight := 1.5
	p.Retrieval.VectorWeight = &weight
	p.MaxTokens = -100
	cfg.Pipelines = []Pipeline{p}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"retrieval.top_k",
		"retrieval.rerank_n",
		"retrieval.vector_weight",
		"max_tokens",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error for %s, got: %v", want, err)
		}
	}
}

func TestValidate_InvalidSSLMode(t *testing.T) {
	cfg := DefaultConfig()
	p := validPipeline("drhp")
	p.Database.SSLMode = "mandatory"
	cfg.Pipelines = []Pipeline{p}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ssl_mode") {
		t.Errorf("expected ssl_mode error, got: %v", err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	content := `
server:
  port: 9090
defaults:
  agent_llm:
    provider: openai
    model: gpt-4o-mini
  rerank_llm:
    provider: cohere
    model: rerank-v3.5
  api_keys:
    openai: /keys/shared-openai
pipelines:
  - name: drhp
    database:
      host: db.internal
      database: finsight
    chunks:
      table: rag.chunks
    embedding_llm:
      provider: openai
      model: text-embedding-3-small
  - name: annual-report
    database:
      host: db.internal
      port: 5433
      database: finsight
      ssl_mode: require
    chunks:
      table: chunks
      content_column: body
    embedding_llm:
      provider: voyage
      model: voyage-3
    agent_llm:
      provider: anthropic
      model: claude-sonnet-4-20250514
    api_keys:
      openai: /keys/pipeline-openai
    retrieval:
      top_k: 25
    anchors:
      investor_section: SHAREHOLDING PATTERN
`
	path := filepath.Join(t.TempDir(), "summary-server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Pipelines) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(cfg.Pipelines))
	}

	first := cfg.Pipelines[0]
	if first.AgentLLM.Provider != "openai" || first.AgentLLM.Model != "gpt-4o-mini" {
		t.Errorf("expected agent defaults applied, got %+v", first.AgentLLM)
	}
	if first.RerankLLM.Provider != "cohere" {
		t.Errorf("expected rerank defaults applied, got %+v", first.RerankLLM)
	}
	if first.Retrieval.TopK != 10 || first.Retrieval.RerankN != 5 {
		t.Errorf("expected retrieval defaults, got %+v", first.Retrieval)
	}
	if first.Database.Port != 5432 {
		t.Errorf("expected default port 5432, got %d", first.Database.Port)
	}
	if first.Database.SSLMode != "prefer" {
		t.Errorf("expected default ssl_mode prefer, got %s", first.Database.SSLMode)
	}
	if first.Chunks.ContentColumn != "content" ||
		first.Chunks.EmbeddingColumn != "embedding" ||
		first.Chunks.PartitionColumn != "partition" ||
		first.Chunks.MetadataColumn != "metadata" {
		t.Errorf("expected chunk column defaults, got %+v", first.Chunks)
	}
	if first.APIKeys.OpenAI != "/keys/shared-openai" {
		t.Errorf("expected defaults key path, got %s", first.APIKeys.OpenAI)
	}
	if first.Anchors.InvestorSection != DefaultInvestorSection ||
		first.Anchors.InvestorHeading != DefaultInvestorHeading ||
		first.Anchors.ResearchSection != DefaultResearchSection ||
		first.Anchors.ResearchHeading != DefaultResearchHeading {
		t.Errorf("expected default anchors, got %+v", first.Anchors)
	}

	second := cfg.Pipelines[1]
	if second.AgentLLM.Provider != "anthropic" {
		t.Errorf("pipeline override lost: %+v", second.AgentLLM)
	}
	if second.Database.Port != 5433 || second.Database.SSLMode != "require" {
		t.Errorf("pipeline database overrides lost: %+v", second.Database)
	}
	if second.Chunks.ContentColumn != "body" {
		t.Errorf("pipeline chunk override lost: %+v", second.Chunks)
	}
	if second.Retrieval.TopK != 25 || second.Retrieval.RerankN != 5 {
		t.Errorf("expected mixed retrieval settings, got %+v", second.Retrieval)
	}
	if second.APIKeys.OpenAI != "/keys/pipeline-openai" {
		t.Errorf("pipeline key path lost: %s", second.APIKeys.OpenAI)
	}
	if second.Anchors.InvestorSection != "SHAREHOLDING PATTERN" {
		t.Errorf("anchor override lost: %+v", second.Anchors)
	}
	if second.Anchors.ResearchSection != DefaultResearchSection {
		t.Errorf("expected default research anchor, got %+v", second.Anchors)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/summary-server.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary-server.yaml")
	if err := os.WriteFile(path, []byte("pipelines: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	content := `
pipelines:
  - name: drhp
    database:
      host: db.internal
      database: finsight
    chunks:
      table: chunks
    embedding_llm:
      provider: openai
      model: text-embedding-3-small
    agent_llm:
      provider: made-up
      model: whatever
`
	path := filepath.Join(t.TempDir(), "summary-server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected validation failure, got: %v", err)
	}
}
