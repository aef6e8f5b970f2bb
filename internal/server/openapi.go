//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"net/http"
)

// OpenAPISpec represents the OpenAPI v3 specification.
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Servers    []OpenAPIServer        `json:"servers"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

// OpenAPIInfo contains API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// OpenAPIServer describes a server.
type OpenAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIPath contains operations for a path.
type OpenAPIPath struct {
	Get    *OpenAPIOperation `json:"get,omitempty"`
	Post   *OpenAPIOperation `json:"post,omitempty"`
	Put    *OpenAPIOperation `json:"put,omitempty"`
	Delete *OpenAPIOperation `json:"delete,omitempty"`
}

// OpenAPIOperation describes an API operation.
type OpenAPIOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description,omitempty"`
	OperationID string                     `json:"operationId"`
	Tags        []string                   `json:"tags,omitempty"`
	Parameters  []OpenAPIParameter         `json:"parameters,omitempty"`
	RequestBody *OpenAPIRequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
}

// OpenAPIParameter describes a parameter.
type OpenAPIParameter struct {
	Name        string        `json:"name"`
	In          string        `json:"in"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Schema      OpenAPISchema `json:"schema"`
}

// OpenAPIRequestBody describes a request body.
type OpenAPIRequestBody struct {
	Description string                      `json:"description,omitempty"`
	Required    bool                        `json:"required"`
	Content     map[string]OpenAPIMediaType `json:"content"`
}

// OpenAPIResponse describes a response.
type OpenAPIResponse struct {
	Description string                      `json:"description"`
	Content     map[string]OpenAPIMediaType `json:"content,omitempty"`
}

// OpenAPIMediaType describes a media type.
type OpenAPIMediaType struct {
	Schema OpenAPISchema `json:"schema"`
}

// OpenAPISchema describes a schema.
type OpenAPISchema struct {
	Type                 string                   `json:"type,omitempty"`
	Format               string                   `json:"format,omitempty"`
	Description          string                   `json:"description,omitempty"`
	Properties           map[string]OpenAPISchema `json:"properties,omitempty"`
	AdditionalProperties *OpenAPISchema           `json:"additionalProperties,omitempty"`
	Items                *OpenAPISchema           `json:"items,omitempty"`
	Required             []string                 `json:"required,omitempty"`
	Default              any                      `json:"default,omitempty"`
	Ref                  string                   `json:"$ref,omitempty"`
}

// OpenAPIComponents contains reusable components.
type OpenAPIComponents struct {
	Schemas map[string]OpenAPISchema `json:"schemas"`
}

// handleOpenAPI handles the GET /v1/openapi.json endpoint.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec := BuildOpenAPISpec()
	s.respondJSON(w, http.StatusOK, spec)
}

// errorResponses is the shared 4xx/5xx response set for pipeline
// operations.
func errorResponses() map[string]OpenAPIResponse {
	errContent := map[string]OpenAPIMediaType{
		"application/json": {
			Schema: OpenAPISchema{Ref: "#/components/schemas/ErrorResponse"},
		},
	}
	return map[string]OpenAPIResponse{
		"400": {Description: "Invalid request", Content: errContent},
		"404": {Description: "Pipeline not found", Content: errContent},
		"500": {Description: "Server error", Content: errContent},
	}
}

// BuildOpenAPISpec constructs the OpenAPI v3 specification.
// This is exported so it can be used to generate static documentation.
func BuildOpenAPISpec() OpenAPISpec {
	filterSchema := OpenAPISchema{
		Type:                 "object",
		Description:          "Metadata key/value pairs; every pair must match",
		AdditionalProperties: &OpenAPISchema{Type: "string"},
	}

	summaryResponses := errorResponses()
	summaryResponses["200"] = OpenAPIResponse{
		Description: "Assembled summary document",
		Content: map[string]OpenAPIMediaType{
			"application/json": {
				Schema: OpenAPISchema{Ref: "#/components/schemas/RunResult"},
			},
		},
	}
	summaryResponses["502"] = OpenAPIResponse{
		Description: "Every pipeline stage failed",
		Content: map[string]OpenAPIMediaType{
			"application/json": {
				Schema: OpenAPISchema{Ref: "#/components/schemas/ErrorResponse"},
			},
		},
	}

	retrieveResponses := errorResponses()
	retrieveResponses["200"] = OpenAPIResponse{
		Description: "Retrieved context",
		Content: map[string]OpenAPIMediaType{
			"application/json": {
				Schema: OpenAPISchema{Ref: "#/components/schemas/RetrieveResponse"},
			},
		},
	}

	queryResponses := errorResponses()
	queryResponses["200"] = OpenAPIResponse{
		Description: "Query response",
		Content: map[string]OpenAPIMediaType{
			"application/json": {
				Schema: OpenAPISchema{Ref: "#/components/schemas/QueryResponse"},
			},
			"text/event-stream": {
				Schema: OpenAPISchema{
					Type:        "string",
					Description: "Server-Sent Events stream",
				},
			},
		},
	}

	nameParam := OpenAPIParameter{
		Name:        "name",
		In:          "path",
		Description: "Pipeline name",
		Required:    true,
		Schema:      OpenAPISchema{Type: "string"},
	}

	return OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "FinSight Summary Server API",
			Description: "REST API for generating multi-agent prospectus summaries",
			Version:     "1.0.0",
		},
		Servers: []OpenAPIServer{
			{
				URL:         "/v1",
				Description: "API v1",
			},
		},
		Paths: map[string]OpenAPIPath{
			"/health": {
				Get: &OpenAPIOperation{
					Summary:     "Health check",
					Description: "Check if the server is running and healthy",
					OperationID: "getHealth",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Server is healthy",
							Content: map[string]OpenAPIMediaType{
								"application/json": {
									Schema: OpenAPISchema{
										Ref: "#/components/schemas/HealthResponse",
									},
								},
							},
						},
					},
				},
			},
			"/pipelines": {
				Get: &OpenAPIOperation{
					Summary:     "List pipelines",
					Description: "Get a list of all configured summary pipelines",
					OperationID: "listPipelines",
					Tags:        []string{"Pipelines"},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "List of pipelines",
							Content: map[string]OpenAPIMediaType{
								"application/json": {
									Schema: OpenAPISchema{
										Ref: "#/components/schemas/PipelinesResponse",
									},
								},
							},
						},
					},
				},
			},
			"/pipelines/{name}/summary": {
				Post: &OpenAPIOperation{
					Summary:     "Generate summary",
					Description: "Run the full multi-agent pipeline and return the assembled document",
					OperationID: "generateSummary",
					Tags:        []string{"Pipelines"},
					Parameters:  []OpenAPIParameter{nameParam},
					RequestBody: &OpenAPIRequestBody{
						Description: "Run request",
						Required:    true,
						Content: map[string]OpenAPIMediaType{
							"application/json": {
								Schema: OpenAPISchema{
									Ref: "#/components/schemas/RunRequest",
								},
							},
						},
					},
					Responses: summaryResponses,
				},
			},
			"/pipelines/{name}/retrieve": {
				Post: &OpenAPIOperation{
					Summary:     "Retrieve context",
					Description: "Run the retrieval cascade without invoking any agent",
					OperationID: "retrieveContext",
					Tags:        []string{"Pipelines"},
					Parameters:  []OpenAPIParameter{nameParam},
					RequestBody: &OpenAPIRequestBody{
						Description: "Retrieve request",
						Required:    true,
						Content: map[string]OpenAPIMediaType{
							"application/json": {
								Schema: OpenAPISchema{
									Ref: "#/components/schemas/RetrieveRequest",
								},
							},
						},
					},
					Responses: retrieveResponses,
				},
			},
			"/pipelines/{name}/query": {
				Post: &OpenAPIOperation{
					Summary:     "Query pipeline",
					Description: "Answer a single question against the pipeline's document set",
					OperationID: "queryPipeline",
					Tags:        []string{"Pipelines"},
					Parameters:  []OpenAPIParameter{nameParam},
					RequestBody: &OpenAPIRequestBody{
						Description: "Query request",
						Required:    true,
						Content: map[string]OpenAPIMediaType{
							"application/json": {
								Schema: OpenAPISchema{
									Ref: "#/components/schemas/QueryRequest",
								},
							},
						},
					},
					Responses: queryResponses,
				},
			},
		},
		Components: OpenAPIComponents{
			Schemas: map[string]OpenAPISchema{
				"HealthResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"status": {
							Type:        "string",
							Description: "Health status",
						},
					},
					Required: []string{"status"},
				},
				"PipelinesResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"pipelines": {
							Type:        "array",
							Description: "List of available pipelines",
							Items: &OpenAPISchema{
								Ref: "#/components/schemas/PipelineInfo",
							},
						},
					},
					Required: []string{"pipelines"},
				},
				"PipelineInfo": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"name": {
							Type:        "string",
							Description: "Pipeline name",
						},
						"description": {
							Type:        "string",
							Description: "Pipeline description",
						},
					},
					Required: []string{"name"},
				},
				"RunRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"filter": filterSchema,
						"partition": {
							Type:        "string",
							Description: "Partition used by relaxed-tier retrieval",
						},
						"options": {
							Ref: "#/components/schemas/RunOptions",
						},
					},
				},
				"RunOptions": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"extraction_enabled": {
							Type:        "boolean",
							Description: "Run the investor and capital extraction agents",
							Default:     true,
						},
						"validation_enabled": {
							Type:        "boolean",
							Description: "Validate the draft against its retrieved context",
							Default:     true,
						},
						"research_enabled": {
							Type:        "boolean",
							Description: "Run the adverse-findings research agent",
							Default:     true,
						},
						"include_valuation": {
							Type:        "boolean",
							Description: "Include valuation analysis for premium rounds",
							Default:     true,
						},
						"target_entities": {
							Type:        "array",
							Description: "Investor names to highlight in the investor table",
							Items:       &OpenAPISchema{Type: "string"},
						},
					},
				},
				"RunResult": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"run_id": {
							Type:        "string",
							Format:      "uuid",
							Description: "Run identifier",
						},
						"status": {
							Type:        "string",
							Description: "Run status (success or degraded)",
						},
						"document": {
							Type:        "string",
							Description: "Assembled markdown document",
						},
						"usage": {
							Ref: "#/components/schemas/TokenUsage",
						},
						"duration_ms": {
							Type:        "integer",
							Description: "Run duration in milliseconds",
						},
						"failed_tasks": {
							Type:        "array",
							Description: "Names of tasks that failed or produced unusable output",
							Items:       &OpenAPISchema{Type: "string"},
						},
					},
					Required: []string{"run_id", "status", "document"},
				},
				"TokenUsage": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"PromptTokens":     {Type: "integer"},
						"CompletionTokens": {Type: "integer"},
						"TotalTokens":      {Type: "integer"},
					},
				},
				"RetrieveRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"queries": {
							Type:        "array",
							Description: "Retrieval queries",
							Items:       &OpenAPISchema{Type: "string"},
						},
						"filter": filterSchema,
						"partition": {
							Type:        "string",
							Description: "Partition used by relaxed-tier retrieval",
						},
					},
					Required: []string{"queries"},
				},
				"RetrieveResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"context": {
							Type:        "string",
							Description: "Deduplicated context joined by fragment separators",
						},
						"fragments": {
							Type:        "array",
							Description: "Individual context fragments",
							Items:       &OpenAPISchema{Type: "string"},
						},
						"degraded": {
							Type:        "boolean",
							Description: "True when any query fell through to open retrieval or returned nothing",
						},
					},
					Required: []string{"context", "fragments"},
				},
				"Message": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"role": {
							Type:        "string",
							Description: "Message role (user or assistant)",
						},
						"content": {
							Type:        "string",
							Description: "Message content",
						},
					},
					Required: []string{"role", "content"},
				},
				"QueryRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"query": {
							Type:        "string",
							Description: "The question to answer",
						},
						"filter": filterSchema,
						"partition": {
							Type:        "string",
							Description: "Partition used by relaxed-tier retrieval",
						},
						"stream": {
							Type:        "boolean",
							Description: "Enable streaming response (SSE)",
							Default:     false,
						},
						"messages": {
							Type:        "array",
							Description: "Previous conversation history for context",
							Items: &OpenAPISchema{
								Ref: "#/components/schemas/Message",
							},
						},
					},
					Required: []string{"query"},
				},
				"QueryResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"answer": {
							Type:        "string",
							Description: "The generated answer",
						},
						"degraded": {
							Type:        "boolean",
							Description: "True when retrieval fell through to open retrieval",
						},
						"tokens_used": {
							Type:        "integer",
							Description: "Total tokens consumed",
						},
					},
					Required: []string{"answer", "tokens_used"},
				},
				"ErrorResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"error": {
							Ref: "#/components/schemas/ErrorDetail",
						},
					},
					Required: []string{"error"},
				},
				"ErrorDetail": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"code": {
							Type:        "string",
							Description: "Error code",
						},
						"message": {
							Type:        "string",
							Description: "Error message",
						},
					},
					Required: []string{"code", "message"},
				},
			},
		},
	}
}
