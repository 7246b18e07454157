package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"precificador/internal/domain"
)

// AnalysisRepository

func (db *DB) Create(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
        INSERT INTO analyses (request, status) VALUES ($1, 'queued') RETURNING id
    `, body).Scan(&id); err != nil {
		return "", err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO analysis_jobs (analysis_id) VALUES ($1)`, id); err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

func (db *DB) Get(ctx context.Context, analysisID string) (domain.Analysis, error) {
	var (
		a        domain.Analysis
		request  []byte
		result   []byte
		finished *time.Time
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT id, request, status, result, error, created_at, finished_at
        FROM analyses WHERE id = $1
    `, analysisID).Scan(&a.ID, &request, &a.Status, &result, &a.Error, &a.CreatedAt, &finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, fmt.Errorf("analysis %s: %w", analysisID, domain.ErrNotFound)
	}
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(request, &a.Request); err != nil {
		return a, fmt.Errorf("decode request: %w", err)
	}
	if len(result) > 0 {
		var r domain.FlowResult
		if err := json.Unmarshal(result, &r); err != nil {
			return a, fmt.Errorf("decode result: %w", err)
		}
		a.Result = &r
	}
	a.FinishedAt = finished
	return a, nil
}

func (db *DB) SaveResult(ctx context.Context, analysisID string, result domain.FlowResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `UPDATE analyses SET result = $2 WHERE id = $1`, analysisID, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("analysis %s: %w", analysisID, domain.ErrNotFound)
	}
	return nil
}

// SnapshotRepository

func (db *DB) SaveSnapshot(ctx context.Context, snap domain.Snapshot) (string, error) {
	corpus, err := json.Marshal(orEmpty(snap.Corpus))
	if err != nil {
		return "", err
	}
	results, err := json.Marshal(snap.Results)
	if err != nil {
		return "", err
	}
	sctx, err := json.Marshal(orEmpty(snap.Context))
	if err != nil {
		return "", err
	}
	var id string
	err = db.Pool.QueryRow(ctx, `
        INSERT INTO snapshots (corpus, results, context) VALUES ($1, $2, $3) RETURNING id
    `, corpus, results, sctx).Scan(&id)
	return id, err
}

func (db *DB) GetSnapshot(ctx context.Context, snapshotID string) (domain.Snapshot, error) {
	snap := domain.Snapshot{ID: snapshotID}
	var corpus, results, sctx []byte
	err := db.Pool.QueryRow(ctx, `SELECT corpus, results, context FROM snapshots WHERE id = $1`, snapshotID).Scan(&corpus, &results, &sctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return snap, fmt.Errorf("snapshot %s: %w", snapshotID, domain.ErrNotFound)
	}
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(corpus, &snap.Corpus); err != nil {
		return snap, fmt.Errorf("decode corpus: %w", err)
	}
	if err := json.Unmarshal(results, &snap.Results); err != nil {
		return snap, fmt.Errorf("decode results: %w", err)
	}
	if err := json.Unmarshal(sctx, &snap.Context); err != nil {
		return snap, fmt.Errorf("decode context: %w", err)
	}
	return snap, nil
}

// QuestionLog

func (db *DB) AppendQuestion(ctx context.Context, snapshotID, text string) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO question_log (snapshot_id, text) VALUES ($1, $2)`, snapshotID, text)
	return err
}

// RecentQuestions returns up to limit questions, oldest first.
func (db *DB) RecentQuestions(ctx context.Context, snapshotID string, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT text FROM (
            SELECT id, text FROM question_log WHERE snapshot_id = $1 ORDER BY id DESC LIMIT $2
        ) recent ORDER BY id ASC
    `, snapshotID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
