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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "summary-server.yaml"

	// SystemConfigPath is the system-wide configuration path.
	SystemConfigPath = "/etc/finsight/" + ConfigFileName
)

// Load loads the configuration from the specified path, or searches
// default locations if path is empty.
//
// Search order:
//  1. Explicit path (if provided)
//  2. /etc/finsight/summary-server.yaml
//  3. summary-server.yaml in the binary's directory
func Load(path string) (*Config, error) {
	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}

	return loadFromFile(configPath)
}

// findConfigFile finds the configuration file using the search order.
func findConfigFile(explicitPath string) (string, error) {
	// If explicit path provided, use it
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Search order for config file
	searchPaths := []string{
		SystemConfigPath,
		getBinaryDirConfigPath(),
	}

	for _, p := range searchPaths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no configuration file found; searched: %v", searchPaths)
}

// getBinaryDirConfigPath returns the path to config file in the binary's
// directory.
func getBinaryDirConfigPath() string {
	executable, err := os.Executable()
	if err != nil {
		return ""
	}

	// Resolve symlinks to get the actual binary location
	executable, err = filepath.EvalSymlinks(executable)
	if err != nil {
		return ""
	}

	return filepath.Join(filepath.Dir(executable), ConfigFileName)
}

// loadFromFile loads and parses the configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults to pipelines
	applyDefaults(cfg)

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults applies default values to pipelines where not specified.
func applyDefaults(cfg *Config) {
	for i := range cfg.Pipelines {
		p := &cfg.Pipelines[i]

		applyLLMDefaults(&p.EmbeddingLLM, cfg.Defaults.EmbeddingLLM)
		applyLLMDefaults(&p.AgentLLM, cfg.Defaults.AgentLLM)
		applyLLMDefaults(&p.ResearchLLM, cfg.Defaults.ResearchLLM)
		applyLLMDefaults(&p.RerankLLM, cfg.Defaults.RerankLLM)

		// Apply retrieval defaults
		if p.Retrieval.TopK == 0 {
			p.Retrieval.TopK = cfg.Defaults.Retrieval.TopK
		}
		if p.Retrieval.RerankN == 0 {
			p.Retrieval.RerankN = cfg.Defaults.Retrieval.RerankN
		}
		if p.Retrieval.RelaxDropKeys == nil {
			p.Retrieval.RelaxDropKeys = cfg.Defaults.Retrieval.RelaxDropKeys
		}
		if p.Retrieval.Subqueries == nil {
			p.Retrieval.Subqueries = cfg.Defaults.Retrieval.Subqueries
		}
		if p.Retrieval.HybridEnabled == nil {
			p.Retrieval.HybridEnabled = cfg.Defaults.Retrieval.HybridEnabled
		}
		if p.Retrieval.VectorWeight == nil {
			p.Retrieval.VectorWeight = cfg.Defaults.Retrieval.VectorWeight
		}

		// Apply API key defaults (cascade: pipeline -> defaults -> global)
		applyKeyDefault(&p.APIKeys.Anthropic, cfg.Defaults.APIKeys.Anthropic, cfg.APIKeys.Anthropic)
		applyKeyDefault(&p.APIKeys.OpenAI, cfg.Defaults.APIKeys.OpenAI, cfg.APIKeys.OpenAI)
		applyKeyDefault(&p.APIKeys.Voyage, cfg.Defaults.APIKeys.Voyage, cfg.APIKeys.Voyage)
		applyKeyDefault(&p.APIKeys.Cohere, cfg.Defaults.APIKeys.Cohere, cfg.APIKeys.Cohere)
		applyKeyDefault(&p.APIKeys.Perplexity, cfg.Defaults.APIKeys.Perplexity, cfg.APIKeys.Perplexity)

		// Apply anchor defaults
		if p.Anchors.InvestorSection == "" {
			p.Anchors.InvestorSection = DefaultInvestorSection
		}
		if p.Anchors.InvestorHeading == "" {
			p.Anchors.InvestorHeading = DefaultInvestorHeading
		}
		if p.Anchors.ResearchSection == "" {
			p.Anchors.ResearchSection = DefaultResearchSection
		}
		if p.Anchors.ResearchHeading == "" {
			p.Anchors.ResearchHeading = DefaultResearchHeading
		}

		// Apply chunk column defaults
		if p.Chunks.ContentColumn == "" {
			p.Chunks.ContentColumn = "content"
		}
		if p.Chunks.EmbeddingColumn == "" {
			p.Chunks.EmbeddingColumn = "embedding"
		}
		if p.Chunks.PartitionColumn == "" {
			p.Chunks.PartitionColumn = "partition"
		}
		if p.Chunks.MetadataColumn == "" {
			p.Chunks.MetadataColumn = "metadata"
		}

		// Apply database port default
		if p.Database.Port == 0 {
			p.Database.Port = 5432
		}

		// Apply database ssl_mode default
		if p.Database.SSLMode == "" {
			p.Database.SSLMode = "prefer"
		}
	}
}

// applyLLMDefaults fills empty provider/model fields from the defaults.
func applyLLMDefaults(dst *LLMConfig, def LLMConfig) {
	if dst.Provider == "" {
		dst.Provider = def.Provider
	}
	if dst.Model == "" {
		dst.Model = def.Model
	}
}

// applyKeyDefault fills an empty key path from defaults then global config.
func applyKeyDefault(dst *string, defaultPath, globalPath string) {
	if *dst != "" {
		return
	}
	if defaultPath != "" {
		*dst = defaultPath
		return
	}
	*dst = globalPath
}
