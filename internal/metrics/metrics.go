//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by pipeline name and final status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by pipeline and status.",
	}, []string{"pipeline", "status"})

	// RunDuration observes end-to-end pipeline run duration.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finsight",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run duration.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"pipeline"})

	// TaskFailures counts failed pipeline tasks by task name.
	TaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "pipeline",
		Name:      "task_failures_total",
		Help:      "Failed pipeline tasks by task.",
	}, []string{"pipeline", "task"})

	// RetrievalTier counts which cascade tier satisfied each query.
	RetrievalTier = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "retrieval",
		Name:      "tier_total",
		Help:      "Retrieval cascade outcomes by tier (1, 2, 3, or none).",
	}, []string{"tier"})

	// RerankFallbacks counts rerank calls that fell back to input order.
	RerankFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "retrieval",
		Name:      "rerank_fallbacks_total",
		Help:      "Rerank calls that returned candidates in input order.",
	})

	// HTTPRequests counts handled HTTP requests by method, route, and
	// status code class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Handled HTTP requests by method, path pattern, and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request handling time by route. Summary
	// routes dominate the upper buckets; the wide range keeps both the
	// health probe and multi-minute runs on the histogram.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finsight",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling time by method and path pattern.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
	}, []string{"method", "route"})

	// TokensUsed counts LLM tokens consumed by pipeline runs.
	TokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "LLM tokens consumed, by pipeline and kind (prompt, completion).",
	}, []string{"pipeline", "kind"})
)
