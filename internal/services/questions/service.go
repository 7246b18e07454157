package questions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
)

type Service struct {
	snapshots ports.SnapshotRepository
	log       ports.QuestionLog
	router    *Router
	loops     LoopDetector
	logger    *zap.Logger
}

func NewService(snapshots ports.SnapshotRepository, log ports.QuestionLog, router *Router, loops LoopDetector, logger *zap.Logger) *Service {
	return &Service{snapshots: snapshots, log: log, router: router, loops: loops, logger: logging.OrNop(logger).Named("questions")}
}

var _ ports.Questions = (*Service)(nil)

func (s *Service) StoreSnapshot(ctx context.Context, snap domain.Snapshot) (string, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return "", err
	}
	id, err := s.snapshots.SaveSnapshot(ctx, snap)
	if err != nil {
		return "", err
	}
	s.logger.Info("snapshot.stored", zap.String("snapshot_id", id), zap.Int("agents", len(snap.Results.Agents)))
	return id, nil
}

// StoreSnapshotJSON validates the document as received, before any decoding
// fills in defaults, then stores it.
func (s *Service) StoreSnapshotJSON(ctx context.Context, raw []byte) (string, error) {
	if err := ValidateSnapshotJSON(raw); err != nil {
		return "", err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return "", domain.Malformed("invalid snapshot: %v", err)
	}
	return s.StoreSnapshot(ctx, snap)
}

// Ask validates the whole request before answering any question.
func (s *Service) Ask(ctx context.Context, snapshotID string, req domain.AskRequest) ([]domain.Answer, error) {
	if err := validateAsk(req); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(snapshotID); err != nil {
		return nil, domain.NewAppError("NOT_FOUND", "snapshot "+snapshotID, domain.ErrNotFound)
	}
	snap, err := s.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	answers := make([]domain.Answer, 0, len(req.Questions))
	for _, q := range req.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if req.Mode == domain.ModeAutomatic && strings.TrimSpace(q.Category) == "" {
			q.Category = InferCategory(q.Text)
			s.logger.Debug("question.inferred", zap.String("question_id", q.ID), zap.String("category", q.Category))
		}
		a := s.router.Route(snap, q)
		a.Repeated = s.repeated(ctx, snapshotID, q.Text)
		s.logger.Info("question.answered",
			zap.String("question_id", q.ID),
			zap.String("category", a.Category),
			zap.String("status", string(a.Status)),
			zap.Int("evidence", len(a.Evidence)),
			zap.Bool("repeated", a.Repeated),
		)
		answers = append(answers, a)
	}
	return answers, nil
}

// repeated consults and extends the question log; log failures only cost the flag.
func (s *Service) repeated(ctx context.Context, snapshotID, text string) bool {
	if s.log == nil {
		return false
	}
	history, err := s.log.RecentQuestions(ctx, snapshotID, max(s.loops.Window-1, 0))
	if err != nil {
		s.logger.Warn("question.log_read_failed", zap.Error(err))
	}
	rep := s.loops.Repeated(history, text)
	if err := s.log.AppendQuestion(ctx, snapshotID, text); err != nil {
		s.logger.Warn("question.log_write_failed", zap.Error(err))
	}
	return rep
}

func validateAsk(req domain.AskRequest) error {
	switch req.Mode {
	case domain.ModeCategorized, domain.ModeAutomatic:
	default:
		return domain.Malformed("unsupported question mode %q", req.Mode)
	}
	if len(req.Questions) == 0 {
		return domain.Malformed("question list is empty")
	}
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return domain.Malformed("question %d has no text", i)
		}
		if req.Mode == domain.ModeCategorized && strings.TrimSpace(q.Category) == "" {
			return domain.Malformed("question %d has no category", i)
		}
	}
	return nil
}
