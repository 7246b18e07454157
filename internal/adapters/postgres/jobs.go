package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"precificador/internal/ports"
)

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AnalysisJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id, analysis_id FROM analysis_jobs
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ID, &job.AnalysisID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	if err = markRunning(ctx, tx, job.ID, job.AnalysisID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.finish(ctx, jobID, "completed", "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.finish(ctx, jobID, "failed", reason)
}

// finish closes the job and its analysis atomically.
func (db *DB) finish(ctx context.Context, jobID, status, reason string) (err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var analysisID string
	if err = tx.QueryRow(ctx, `SELECT analysis_id FROM analysis_jobs WHERE id=$1`, jobID).Scan(&analysisID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE analysis_jobs SET status=$2, last_error=$3, finished_at=now() WHERE id=$1`, jobID, status, reason); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE analyses SET status=$2, error=$3, finished_at=now() WHERE id=$1`, analysisID, status, reason)
	return err
}

// StartJobForAnalysis marks the queued job of one analysis as running and returns its id.
func (db *DB) StartJobForAnalysis(ctx context.Context, analysisID string) (jobID string, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id FROM analysis_jobs
        WHERE analysis_id = $1 AND status = 'queued'
        FOR UPDATE SKIP LOCKED
    `, analysisID).Scan(&jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ports.ErrJobClaimed
	}
	if err != nil {
		return "", err
	}
	if err = markRunning(ctx, tx, jobID, analysisID); err != nil {
		return "", err
	}
	return jobID, nil
}

func markRunning(ctx context.Context, tx pgx.Tx, jobID, analysisID string) error {
	if _, err := tx.Exec(ctx, `UPDATE analysis_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1`, jobID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `UPDATE analyses SET status='running', started_at=COALESCE(started_at, now()) WHERE id=$1`, analysisID)
	return err
}
