//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cohere

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/finsight-ai/summary-server/internal/llm"
)

// RerankProvider implements the llm.RerankProvider interface.
type RerankProvider struct {
	client *Client
	model  string
}

// NewRerankProvider creates a new Cohere rerank provider.
func NewRerankProvider(apiKey string, opts ...RerankOption) *RerankProvider {
	p := &RerankProvider{
		client: NewClient(apiKey),
		model:  defaultRerankModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RerankOption configures the rerank provider.
type RerankOption func(*RerankProvider)

// WithRerankModel sets the rerank model.
func WithRerankModel(model string) RerankOption {
	return func(p *RerankProvider) {
		p.model = model
	}
}

// WithRerankClient sets a custom client.
func WithRerankClient(client *Client) RerankOption {
	return func(p *RerankProvider) {
		p.client = client
	}
}

// rerankRequest is the request format for the rerank API.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the response format from the rerank API.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores documents against the query and returns the top-n
// results ordered by descending relevance.
func (p *RerankProvider) Rerank(
	ctx context.Context,
	query string,
	documents []string,
	topN int,
) ([]llm.RankedDocument, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Model:     p.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	resp, err := p.client.request(ctx, http.MethodPost, "/rerank", reqBody)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var rrResp rerankResponse
	if err := json.Unmarshal(body, &rrResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	ranked := make([]llm.RankedDocument, 0, len(rrResp.Results))
	for _, r := range rrResp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("rerank result index %d out of range", r.Index)
		}
		ranked = append(ranked, llm.RankedDocument{
			Index: r.Index,
			Score: r.RelevanceScore,
		})
	}

	return ranked, nil
}

// ModelName returns the model name.
func (p *RerankProvider) ModelName() string {
	return p.model
}

// Ensure RerankProvider implements the interface.
var _ llm.RerankProvider = (*RerankProvider)(nil)
