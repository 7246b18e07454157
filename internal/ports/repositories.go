package ports

import (
	"context"

	"precificador/internal/domain"
)

// AnalysisRepository stores analysis requests and their results.
type AnalysisRepository interface {
	Create(ctx context.Context, req domain.AnalysisRequest) (analysisID string, err error)
	Get(ctx context.Context, analysisID string) (domain.Analysis, error)
	SaveResult(ctx context.Context, analysisID string, result domain.FlowResult) error
}

// SnapshotRepository stores analysis snapshots consumed by the question router.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) (snapshotID string, err error)
	GetSnapshot(ctx context.Context, snapshotID string) (domain.Snapshot, error)
}

// QuestionLog keeps the questions asked per snapshot, newest last.
type QuestionLog interface {
	AppendQuestion(ctx context.Context, snapshotID, text string) error
	RecentQuestions(ctx context.Context, snapshotID string, limit int) ([]string, error)
}
