package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/export"
	"precificador/internal/logging"
	"precificador/internal/ports"
	"precificador/internal/workers/analysisrunner"
)

const (
	maxBodyBytes       = 8 << 20
	defaultWaitSeconds = 30
)

// awaitPollInterval paces status reads while a worker holds the job.
var awaitPollInterval = 200 * time.Millisecond

type Server struct {
	analyses  ports.Analyses
	questions ports.Questions
	jobs      ports.JobRepository
	processor analysisrunner.Processor
	logger    *zap.Logger
}

func New(analyses ports.Analyses, questions ports.Questions, jobs ports.JobRepository, processor analysisrunner.Processor, logger *zap.Logger) *Server {
	return &Server{analyses: analyses, questions: questions, jobs: jobs, processor: processor, logger: logging.OrNop(logger).Named("http")}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.getHealthz)
	r.Post("/analyses", s.postAnalysis)
	r.Get("/analyses/{id}", s.getAnalysis)
	r.Get("/analyses/{id}/prices.xlsx", s.getPricesXLSX)
	r.Post("/snapshots", s.postSnapshot)
	r.Post("/snapshots/{id}/questions", s.postQuestions)
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analysisAccepted struct {
	AnalysisID string `json:"analysisId"`
}

func (s *Server) postAnalysis(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var (
		wait    bool
		timeout int
	)
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &wait); err != nil {
		s.writeError(w, r, domain.Malformed("invalid wait parameter: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeout", r.URL.Query(), &timeout); err != nil {
		s.writeError(w, r, domain.Malformed("invalid timeout parameter: %v", err))
		return
	}

	id, err := s.analyses.Enqueue(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !wait {
		writeJSON(w, http.StatusAccepted, analysisAccepted{AnalysisID: id})
		return
	}

	if timeout <= 0 {
		timeout = defaultWaitSeconds
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeout)*time.Second)
	defer cancel()
	err = analysisrunner.ProcessInline(ctx, s.jobs, s.processor, id, s.logger)
	if errors.Is(err, ports.ErrJobClaimed) {
		s.logger.Info("analysis.await_worker", zap.String("analysis_id", id))
		a, waitErr := analysisrunner.Await(ctx, s.analyses, id, awaitPollInterval)
		if waitErr != nil {
			s.writeError(w, r, waitErr)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.analyses.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getPricesXLSX(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := export.PricesXLSX(a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="precos-`+a.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

type snapshotCreated struct {
	SnapshotID string `json:"snapshotId"`
}

func (s *Server) postSnapshot(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, domain.Malformed("read snapshot body: %v", err))
		return
	}
	id, err := s.questions.StoreSnapshotJSON(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshotCreated{SnapshotID: id})
}

type answersResponse struct {
	Answers []domain.Answer `json:"answers"`
}

func (s *Server) postQuestions(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	answers, err := s.questions.Ask(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answersResponse{Answers: answers})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.Malformed("invalid JSON body: %v", err)
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrMalformed):
		status, code = http.StatusBadRequest, "MALFORMED_REQUEST"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}
	msg := err.Error()
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("http.handler_error", zap.String("path", r.URL.Path), zap.String("req_id", middleware.GetReqID(r.Context())), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("req_id", middleware.GetReqID(r.Context())),
		)
	})
}
