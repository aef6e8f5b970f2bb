//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsight-ai/summary-server/internal/llm"
)

func TestBuildMessages(t *testing.T) {
	provider := NewCompletionProvider("test-api-key")

	tests := []struct {
		name           string
		req            llm.CompletionRequest
		wantSystem     string
		systemContains []string
		wantMessages   int
	}{
		{
			name: "system prompt only",
			req: llm.CompletionRequest{
				SystemPrompt: "You are a financial summarization assistant.",
				Messages:     []llm.Message{{Role: "user", Content: "Summarize"}},
			},
			wantSystem:   "You are a financial summarization assistant.",
			wantMessages: 1,
		},
		{
			name: "context documents fold into system prompt",
			req: llm.CompletionRequest{
				SystemPrompt: "You are a due diligence analyst.",
				Context: []llm.ContextDocument{
					{Content: "Registered office: Mumbai"},
				},
				Messages: []llm.Message{{Role: "user", Content: "Where is the office?"}},
			},
			systemContains: []string{"due diligence analyst", "Registered office: Mumbai"},
			wantMessages:   1,
		},
		{
			name: "structured output adds json instruction",
			req: llm.CompletionRequest{
				SystemPrompt: "Extract the shareholding table.",
				JSONResponse: true,
				Messages:     []llm.Message{{Role: "user", Content: "Extract"}},
			},
			systemContains: []string{"Extract the shareholding table.", "valid JSON object"},
			wantMessages:   1,
		},
		{
			name: "system role messages move to system prompt",
			req: llm.CompletionRequest{
				Messages: []llm.Message{
					{Role: "system", Content: "Prefer tables."},
					{Role: "user", Content: "Go"},
					{Role: "assistant", Content: "Done"},
				},
			},
			systemContains: []string{"Prefer tables."},
			wantMessages:   2,
		},
		{
			name: "empty request yields empty system",
			req: llm.CompletionRequest{
				Messages: []llm.Message{{Role: "user", Content: "Hello"}},
			},
			wantSystem:   "",
			wantMessages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, system := provider.buildMessages(tt.req)

			if tt.wantSystem != "" && system != tt.wantSystem {
				t.Errorf("expected system %q, got %q", tt.wantSystem, system)
			}
			if tt.wantSystem == "" && len(tt.systemContains) == 0 && system != "" {
				t.Errorf("expected empty system, got %q", system)
			}
			for _, want := range tt.systemContains {
				if !strings.Contains(system, want) {
					t.Errorf("system should contain %q, got %q", want, system)
				}
			}
			if len(messages) != tt.wantMessages {
				t.Errorf("expected %d messages, got %d", tt.wantMessages, len(messages))
			}
		})
	}
}

// messagesServer returns a mock messages endpoint that captures the
// decoded request and answers with a fixed text block.
func messagesServer(t *testing.T, captured *messagesRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("expected path /messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-api-key" {
			t.Error("missing or incorrect x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
			return
		}

		response := messagesResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: "Test response"},
			},
			StopReason: "end_turn",
			Usage: struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			}{
				InputTokens:  100,
				OutputTokens: 10,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
}

func TestComplete(t *testing.T) {
	var captured messagesRequest
	server := messagesServer(t, &captured)
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))
	provider := NewCompletionProvider("test-api-key", WithCompletionClient(client))

	prompt := "You are a summary reviewer for FinSight."
	resp, err := provider.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: prompt,
		Messages:     []llm.Message{{Role: "user", Content: "Review this"}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(captured.System, prompt) {
		t.Errorf("request system should contain %q, got %q", prompt, captured.System)
	}
	if captured.Model != defaultModel {
		t.Errorf("expected model %q, got %q", defaultModel, captured.Model)
	}
	if resp.Content != "Test response" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 110 {
		t.Errorf("expected 110 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestComplete_EmptySystemPrompt(t *testing.T) {
	var captured messagesRequest
	server := messagesServer(t, &captured)
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))
	provider := NewCompletionProvider("test-api-key", WithCompletionClient(client))

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if captured.System != "" {
		t.Errorf("expected empty system, got %q", captured.System)
	}
}

func TestComplete_RequestOverrides(t *testing.T) {
	var captured messagesRequest
	server := messagesServer(t, &captured)
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))
	provider := NewCompletionProvider("test-api-key",
		WithCompletionClient(client),
		WithMaxTokens(2048),
		WithTemperature(0.9),
	)

	_, err := provider.Complete(context.Background(), llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: "Hello"}},
		MaxTokens:   512,
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if captured.MaxTokens != 512 {
		t.Errorf("expected max_tokens 512, got %d", captured.MaxTokens)
	}
	if captured.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", captured.Temperature)
	}
}
