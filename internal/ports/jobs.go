package ports

import (
	"context"
	"errors"
)

// ErrJobClaimed is returned by StartJobForAnalysis when the job is no longer
// queued, usually because a background worker claimed it first.
var ErrJobClaimed = errors.New("analysis job already claimed")

type AnalysisJob struct {
	ID         string
	AnalysisID string
}

// JobRepository supports claiming and updating analysis jobs.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job AnalysisJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	StartJobForAnalysis(ctx context.Context, analysisID string) (jobID string, err error)
}
