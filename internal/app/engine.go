// Package app wires adapters into the flow engine for the server and the CLI.
package app

import (
	"go.uber.org/zap"

	"precificador/internal/adapters/assist"
	"precificador/internal/adapters/catalog"
	"precificador/internal/adapters/registry"
	searchadapter "precificador/internal/adapters/search"
	"precificador/internal/config"
	"precificador/internal/ports"
	"precificador/internal/services/flow"
	"precificador/internal/services/search"
)

// NewEngine builds the flow engine from configuration. The catalog snapshot is
// constructed here once and shared by reference.
func NewEngine(cfg config.Config, logger *zap.Logger) *flow.Engine {
	snapshot := catalog.NewSnapshot(cfg.Catalog.SnapshotPath, logger)

	ca := registry.NewCAClient(cfg.Registry.CABaseURL, cfg.Registry.Timeout, logger)
	var remote ports.Registry
	if cfg.Registry.CatmatBaseURL != "" {
		remote = registry.NewCatmatClient(cfg.Registry.CatmatBaseURL, cfg.Registry.Timeout, logger)
	}
	catmat := registry.NewFallbackRegistry(remote, snapshot, logger)

	var assistant ports.QueryAssistant
	if a := assist.NewOpenAIAssistant(cfg.Assist.APIKey, cfg.Assist.BaseURL, cfg.Assist.Model, logger); a != nil {
		assistant = a
	}
	consolidator := search.New(
		searchadapter.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout, logger),
		assistant,
		search.Options{
			Threshold:     cfg.Search.SimilarityThreshold,
			Limit:         cfg.Search.Limit,
			AssistTimeout: cfg.Assist.Timeout,
		},
		logger,
	)
	return flow.NewEngine(flow.Scanner{ScanCA: cfg.Flow.ScanEmbeddedCA}, ca, catmat, consolidator, logger)
}
