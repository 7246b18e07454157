package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpadapter "precificador/internal/adapters/http"
	pg "precificador/internal/adapters/postgres"
	"precificador/internal/app"
	"precificador/internal/config"
	"precificador/internal/logging"
	ports "precificador/internal/ports"
	analysessvc "precificador/internal/services/analyses"
	questionsvc "precificador/internal/services/questions"
	"precificador/internal/workers/analysisrunner"
)

func main() {
	cfg, cfgErr := config.Load()
	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNoDatabase) {
		logger.Fatal("config.invalid", zap.Error(cfgErr))
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("config.missing_database", zap.String("hint", "DATABASE_URL is required for Postgres adapters"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db.connect_error", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("db.migrate_error", zap.Error(err))
	}

	var _ ports.AnalysisRepository = db
	var _ ports.SnapshotRepository = db
	var _ ports.QuestionLog = db
	var _ ports.JobRepository = db

	engine := app.NewEngine(cfg, logger)
	analyses := analysessvc.New(db, engine, logger)
	questions := questionsvc.NewService(db, db,
		questionsvc.NewRouter(cfg.Questions.LowConfidence),
		questionsvc.LoopDetector{Window: cfg.Questions.LoopWindow, Threshold: cfg.Questions.LoopThreshold},
		logger,
	)

	srv := httpadapter.New(analyses, questions, db, analyses, logger)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	if cfg.AnalysisWorkers > 0 {
		analysisrunner.Run(ctx, db, analyses, cfg.AnalysisWorkers, 500*time.Millisecond, logger)
		logger.Info("workers.started", zap.Int("count", cfg.AnalysisWorkers))
	}

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("server.listening", zap.String("addr", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("server.shutdown", zap.String("signal", sig.String()))
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		logger.Fatal("server.error", zap.Error(err))
	}
}
