//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration loading and validation for the
// FinSight Summary Server.
package config

// Config is the root configuration structure for the server.
type Config struct {
	Server    ServerConfig  `yaml:"server"`
	APIKeys   APIKeysConfig `yaml:"api_keys"`
	Defaults  Defaults      `yaml:"defaults"`
	Pipelines []Pipeline    `yaml:"pipelines"`
}

// APIKeysConfig contains paths to files containing API keys for LLM
// providers. If not specified, keys are loaded from environment variables
// or default file locations (~/.anthropic-api-key, ~/.openai-api-key,
// ~/.voyage-api-key, ~/.cohere-api-key, ~/.perplexity-api-key).
type APIKeysConfig struct {
	Anthropic  string `yaml:"anthropic"`  // Path to file containing Anthropic API key
	OpenAI     string `yaml:"openai"`     // Path to file containing OpenAI API key
	Voyage     string `yaml:"voyage"`     // Path to file containing Voyage API key
	Cohere     string `yaml:"cohere"`     // Path to file containing Cohere API key
	Perplexity string `yaml:"perplexity"` // Path to file containing Perplexity API key
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddress string     `yaml:"listen_address"`
	Port          int        `yaml:"port"`
	TLS           TLSConfig  `yaml:"tls"`
	CORS          CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Origins to allow, or ["*"] for all
}

// TLSConfig contains TLS/HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Defaults contains default values that can be overridden per-pipeline.
type Defaults struct {
	EmbeddingLLM LLMConfig       `yaml:"embedding_llm"` // Default embedding provider
	AgentLLM     LLMConfig       `yaml:"agent_llm"`     // Default completion provider
	ResearchLLM  LLMConfig       `yaml:"research_llm"`  // Default research provider
	RerankLLM    LLMConfig       `yaml:"rerank_llm"`    // Default rerank provider
	APIKeys      APIKeysConfig   `yaml:"api_keys"`      // Default API key paths
	Retrieval    RetrievalConfig `yaml:"retrieval"`     // Default retrieval settings
}

// Pipeline defines a single summary pipeline configuration.
type Pipeline struct {
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Database     DatabaseConfig  `yaml:"database"`
	Chunks       ChunkSource     `yaml:"chunks"`
	EmbeddingLLM LLMConfig       `yaml:"embedding_llm"`
	AgentLLM     LLMConfig       `yaml:"agent_llm"`
	ResearchLLM  LLMConfig       `yaml:"research_llm"`
	RerankLLM    LLMConfig       `yaml:"rerank_llm"`
	APIKeys      APIKeysConfig   `yaml:"api_keys"` // Pipeline-specific API key paths
	Retrieval    RetrievalConfig `yaml:"retrieval"`
	Prompts      PromptsConfig   `yaml:"prompts"`
	Anchors      AnchorsConfig   `yaml:"anchors"`
	MaxTokens    int             `yaml:"max_tokens"` // Per-completion max tokens
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`

	// Certificate-based authentication
	SSLCert   string `yaml:"ssl_cert"`
	SSLKey    string `yaml:"ssl_key"`
	SSLRootCA string `yaml:"ssl_root_ca"`
}

// ChunkSource defines the table holding embedded document chunks.
type ChunkSource struct {
	Table           string `yaml:"table"`
	ContentColumn   string `yaml:"content_column"`
	EmbeddingColumn string `yaml:"embedding_column"`
	PartitionColumn string `yaml:"partition_column"` // Text column; '' marks the default partition
	MetadataColumn  string `yaml:"metadata_column"`  // jsonb column for filterable attributes
}

// RetrievalConfig contains settings for the retrieval cascade.
type RetrievalConfig struct {
	TopK          int      `yaml:"top_k"`           // Candidates fetched per tier
	RerankN       int      `yaml:"rerank_n"`        // Fragments kept after reranking
	RelaxDropKeys []string `yaml:"relax_drop_keys"` // Filter keys dropped for the relaxed tier
	Subqueries    []string `yaml:"subqueries"`      // Draft agent sub-query set
	HybridEnabled *bool    `yaml:"hybrid_enabled"`  // Fuse lexical ranking into tier search
	VectorWeight  *float64 `yaml:"vector_weight"`   // Weight for vector vs BM25 (default: 0.5)
}

// PromptsConfig contains per-agent system prompts. Empty fields fall back
// to the built-in defaults.
type PromptsConfig struct {
	Investor  string `yaml:"investor"`
	Capital   string `yaml:"capital"`
	Draft     string `yaml:"draft"`
	Validator string `yaml:"validator"`
	Research  string `yaml:"research"`
	Query     string `yaml:"query"` // Standalone question answering
}

// AnchorsConfig names the section headings that the assembler splices
// pipeline fragments in front of, and the headings it inserts.
type AnchorsConfig struct {
	InvestorSection string `yaml:"investor_section"`
	InvestorHeading string `yaml:"investor_heading"`
	ResearchSection string `yaml:"research_section"`
	ResearchHeading string `yaml:"research_heading"`
}

// LLMConfig contains settings for an LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Default anchor labels and inserted headings.
const (
	DefaultInvestorSection = "FINANCIAL PERFORMANCE"
	DefaultInvestorHeading = "Matched Investors & Analysis"
	DefaultResearchSection = "INVESTMENT INSIGHTS FOR FUND MANAGERS"
	DefaultResearchHeading = "Adverse Findings & Research"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: "0.0.0.0",
			Port:          8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		Defaults: Defaults{
			Retrieval: RetrievalConfig{
				TopK:          10,
				RerankN:       5,
				RelaxDropKeys: []string{"documentName"},
			},
		},
	}
}
