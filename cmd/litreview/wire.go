// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/litreview/internal/agent"
	"github.com/pdiddy/litreview/internal/annotate"
	"github.com/pdiddy/litreview/internal/container"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/internal/tools"
	"github.com/pdiddy/litreview/pkg/types"
)

func newProviders(cfg types.AppConfig) []search.Provider {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	return []search.Provider{
		search.NewSemanticScholar(client, cfg.Search, logger),
		search.NewArxiv(client, cfg.Search, logger),
	}
}

func newLLM(cfg types.AppConfig) (llm.Client, error) {
	client, err := llm.NewAnthropic(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("configuring LLM client: %w", err)
	}
	return client, nil
}

func newReviewer(cfg types.AppConfig) (*agent.Reviewer, error) {
	client, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}

	executor := tools.NewExecutor(newProviders(cfg),
		tools.WithDelays(cfg.Search.SearchDelay, cfg.Search.DetailDelay),
		tools.WithDefaultLimit(cfg.Search.MaxResults),
		tools.WithLogger(logger),
	)

	return agent.NewReviewer(client, executor,
		agent.WithModel(cfg.AI.Model),
		agent.WithMaxTokens(cfg.AI.SearchMaxTokens, cfg.AI.SynthesisMaxTokens),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithMinIterationsBeforeStop(cfg.Agent.MinIterationsBeforeStop),
		agent.WithTargetPapers(cfg.Agent.TargetPapers),
		agent.WithLogger(logger),
	), nil
}

func newAnnotator(cfg types.AppConfig) (*annotate.Annotator, error) {
	client, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}
	return annotate.New(client, cfg.AI, cfg.Annotate, logger), nil
}

func openStore(cfg types.AppConfig) (*store.Store, error) {
	if cfg.Store.Disabled {
		return nil, fmt.Errorf("review history is disabled (store.disabled)")
	}
	return store.Open(cfg.Store, logger)
}

// detectRuntime returns nil when PDF/DOCX conversion is off or no container
// runtime works; text documents are still accepted.
func detectRuntime(ctx context.Context, cfg types.AppConfig) container.Runtime {
	if cfg.Annotate.Converter != "markitdown" {
		return nil
	}
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		logger.Warnf("PDF and DOCX conversion unavailable: %v", err)
		return nil
	}
	return rt
}
