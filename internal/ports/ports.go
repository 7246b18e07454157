package ports

import (
	"context"

	"precificador/internal/domain"
)

// Registry looks up one authoritative record by code. A missing entry is
// returned as Found=false with a nil error; transport failures are errors
// matching domain.ErrTransport.
type Registry interface {
	Lookup(ctx context.Context, code string) (domain.RegistryRecord, error)
}

// SearchIndex queries a marketplace/price index and returns normalized results.
type SearchIndex interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// QueryAssistant turns a description into a short search query. Implementations
// may be slow; callers bound them with a deadline.
type QueryAssistant interface {
	SimplifyQuery(ctx context.Context, description string) (string, error)
}

// Analyzer runs one analysis request to a decided outcome.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.FlowResult, error)
}

// Analyses enqueues and tracks persisted analyses.
type Analyses interface {
	Enqueue(ctx context.Context, req domain.AnalysisRequest) (analysisID string, err error)
	Get(ctx context.Context, analysisID string) (domain.Analysis, error)
}

// Questions answers categorized questions against a stored snapshot.
type Questions interface {
	StoreSnapshot(ctx context.Context, snap domain.Snapshot) (snapshotID string, err error)
	StoreSnapshotJSON(ctx context.Context, raw []byte) (snapshotID string, err error)
	Ask(ctx context.Context, snapshotID string, req domain.AskRequest) ([]domain.Answer, error)
}
