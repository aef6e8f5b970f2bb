//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package factory provides functions to create LLM providers from configuration.
package factory

import (
	"fmt"
	"strings"

	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/llm/anthropic"
	"github.com/finsight-ai/summary-server/internal/llm/cohere"
	"github.com/finsight-ai/summary-server/internal/llm/ollama"
	"github.com/finsight-ai/summary-server/internal/llm/openai"
	"github.com/finsight-ai/summary-server/internal/llm/voyage"
)

// Provider constants for matching configuration values.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderVoyage     = "voyage"
	ProviderOllama     = "ollama"
	ProviderCohere     = "cohere"
	ProviderPerplexity = "perplexity"
)

// perplexityBaseURL is the OpenAI-compatible endpoint for Perplexity.
const perplexityBaseURL = "https://api.perplexity.ai"

// NewEmbeddingProvider creates an embedding provider based on configuration.
func NewEmbeddingProvider(
	providerType string,
	model string,
	apiKeys *config.LoadedKeys,
) (llm.EmbeddingProvider, error) {
	provider := strings.ToLower(providerType)

	switch provider {
	case ProviderOpenAI:
		if apiKeys.OpenAI == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		opts := []openai.EmbeddingOption{}
		if model != "" {
			opts = append(opts, openai.WithEmbeddingModel(model))
		}
		return openai.NewEmbeddingProvider(apiKeys.OpenAI, opts...), nil

	case ProviderVoyage:
		if apiKeys.Voyage == "" {
			return nil, fmt.Errorf("Voyage API key not configured")
		}
		opts := []voyage.EmbeddingOption{}
		if model != "" {
			opts = append(opts, voyage.WithModel(model))
		}
		return voyage.NewEmbeddingProvider(apiKeys.Voyage, opts...), nil

	case ProviderOllama:
		opts := []ollama.EmbeddingOption{}
		if model != "" {
			opts = append(opts, ollama.WithEmbeddingModel(model))
		}
		return ollama.NewEmbeddingProvider(opts...), nil

	case ProviderAnthropic:
		return nil, fmt.Errorf("Anthropic does not provide an embedding API")

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", providerType)
	}
}

// NewCompletionProvider creates a completion provider based on configuration.
func NewCompletionProvider(
	providerType string,
	model string,
	apiKeys *config.LoadedKeys,
) (llm.CompletionProvider, error) {
	provider := strings.ToLower(providerType)

	switch provider {
	case ProviderOpenAI:
		if apiKeys.OpenAI == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		opts := []openai.CompletionOption{}
		if model != "" {
			opts = append(opts, openai.WithCompletionModel(model))
		}
		return openai.NewCompletionProvider(apiKeys.OpenAI, opts...), nil

	case ProviderAnthropic:
		if apiKeys.Anthropic == "" {
			return nil, fmt.Errorf("Anthropic API key not configured")
		}
		opts := []anthropic.CompletionOption{}
		if model != "" {
			opts = append(opts, anthropic.WithCompletionModel(model))
		}
		return anthropic.NewCompletionProvider(apiKeys.Anthropic, opts...), nil

	case ProviderOllama:
		opts := []ollama.CompletionOption{}
		if model != "" {
			opts = append(opts, ollama.WithCompletionModel(model))
		}
		return ollama.NewCompletionProvider(opts...), nil

	case ProviderPerplexity:
		// Perplexity exposes an OpenAI-compatible chat completions API.
		if apiKeys.Perplexity == "" {
			return nil, fmt.Errorf("Perplexity API key not configured")
		}
		client := openai.NewClient(apiKeys.Perplexity, openai.WithBaseURL(perplexityBaseURL))
		opts := []openai.CompletionOption{openai.WithCompletionClient(client)}
		if model != "" {
			opts = append(opts, openai.WithCompletionModel(model))
		}
		return openai.NewCompletionProvider(apiKeys.Perplexity, opts...), nil

	case ProviderVoyage:
		return nil, fmt.Errorf("Voyage does not provide a completion API")

	default:
		return nil, fmt.Errorf("unknown completion provider: %s", providerType)
	}
}

// NewRerankProvider creates a rerank provider based on configuration.
// An empty provider type means reranking is not configured; callers
// handle the nil provider by passing candidates through unchanged.
func NewRerankProvider(
	providerType string,
	model string,
	apiKeys *config.LoadedKeys,
) (llm.RerankProvider, error) {
	provider := strings.ToLower(providerType)

	switch provider {
	case "":
		return nil, nil

	case ProviderCohere:
		if apiKeys.Cohere == "" {
			return nil, fmt.Errorf("Cohere API key not configured")
		}
		opts := []cohere.RerankOption{}
		if model != "" {
			opts = append(opts, cohere.WithRerankModel(model))
		}
		return cohere.NewRerankProvider(apiKeys.Cohere, opts...), nil

	default:
		return nil, fmt.Errorf("unknown rerank provider: %s", providerType)
	}
}
