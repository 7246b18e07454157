package analysisrunner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
)

// Processor performs the analysis work for a job's analysis id.
type Processor interface {
	Process(ctx context.Context, analysisID string) error
}

// Run starts worker goroutines that claim jobs and process them until ctx ends.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, logger *zap.Logger) {
	if concurrency < 1 {
		return
	}
	logger = logging.OrNop(logger).Named("workers")
	jobsCh := make(chan ports.AnalysisJob, concurrency)

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(jobsCh)
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						logger.Warn("job.claim_error", zap.Error(err))
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						close(jobsCh)
						return
					}
				}
			}
		}
	}()

	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				err := processor.Process(ctx, job.AnalysisID)
				if err != nil {
					logger.Warn("job.failed", zap.Int("worker", idx), zap.String("job_id", job.ID), zap.Error(err))
				}
				_ = settle(ctx, repo, job.ID, err, logger)
			}
		}(i)
	}
}

// ProcessInline claims the job of one analysis and processes it synchronously
// with the same processor the workers use. It returns ports.ErrJobClaimed when
// the job is no longer queued; callers then wait with Await.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, analysisID string, logger *zap.Logger) error {
	logger = logging.OrNop(logger).Named("workers")
	jobID, err := repo.StartJobForAnalysis(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("start job for analysis %s: %w", analysisID, err)
	}
	err = processor.Process(ctx, analysisID)
	if err != nil {
		logger.Warn("job.inline_failed", zap.String("job_id", jobID), zap.String("analysis_id", analysisID), zap.Error(err))
	}
	if markErr := settle(ctx, repo, jobID, err, logger); markErr != nil && err == nil {
		return markErr
	}
	return err
}

// settle records the job outcome. It runs detached from ctx so an expired
// request or a shutdown does not leave the job running.
func settle(ctx context.Context, repo ports.JobRepository, jobID string, procErr error, logger *zap.Logger) error {
	ctx = context.WithoutCancel(ctx)
	if procErr != nil {
		if err := repo.MarkFailed(ctx, jobID, procErr.Error()); err != nil {
			logger.Error("job.mark_failed_error", zap.String("job_id", jobID), zap.Error(err))
			return err
		}
		return nil
	}
	if err := repo.MarkCompleted(ctx, jobID); err != nil {
		logger.Error("job.complete_error", zap.String("job_id", jobID), zap.Error(err))
		return err
	}
	return nil
}

// AnalysisReader loads the current state of an analysis.
type AnalysisReader interface {
	Get(ctx context.Context, analysisID string) (domain.Analysis, error)
}

// Await polls an analysis until it is completed or failed, or ctx ends.
func Await(ctx context.Context, analyses AnalysisReader, analysisID string, poll time.Duration) (domain.Analysis, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		a, err := analyses.Get(ctx, analysisID)
		if err != nil {
			return domain.Analysis{}, err
		}
		if a.Status == "completed" || a.Status == "failed" {
			return a, nil
		}
		select {
		case <-ctx.Done():
			return domain.Analysis{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
