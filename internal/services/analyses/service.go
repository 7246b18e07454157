// Package analyses persists analysis requests and runs them through the flow
// engine, either from the background workers or inline.
package analyses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
)

type Service struct {
	repo     ports.AnalysisRepository
	analyzer ports.Analyzer
	logger   *zap.Logger
}

func New(repo ports.AnalysisRepository, analyzer ports.Analyzer, logger *zap.Logger) *Service {
	return &Service{repo: repo, analyzer: analyzer, logger: logging.OrNop(logger).Named("analyses")}
}

var _ ports.Analyses = (*Service)(nil)

// Enqueue rejects malformed requests before anything is stored.
func (s *Service) Enqueue(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.CodeA) == "" && strings.TrimSpace(req.CodeB) == "" {
		return "", domain.Malformed("description, codeA or codeB is required")
	}
	id, err := s.repo.Create(ctx, req)
	if err != nil {
		return "", err
	}
	s.logger.Info("analysis.enqueued", zap.String("analysis_id", id))
	return id, nil
}

func (s *Service) Get(ctx context.Context, analysisID string) (domain.Analysis, error) {
	if _, err := uuid.Parse(analysisID); err != nil {
		return domain.Analysis{}, fmt.Errorf("analysis %q: %w", analysisID, domain.ErrNotFound)
	}
	return s.repo.Get(ctx, analysisID)
}

// Process runs a stored analysis and records its result. It is the job
// processor used by the workers and by inline waits.
func (s *Service) Process(ctx context.Context, analysisID string) error {
	a, err := s.repo.Get(ctx, analysisID)
	if err != nil {
		return err
	}
	res, err := s.analyzer.Analyze(ctx, a.Request)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analysisID, err)
	}
	if err := s.repo.SaveResult(ctx, analysisID, res); err != nil {
		return fmt.Errorf("save result %s: %w", analysisID, err)
	}
	s.logger.Info("analysis.processed", zap.String("analysis_id", analysisID), zap.Stringer("flow", res.Flow), zap.String("status", string(res.Status)))
	return nil
}
