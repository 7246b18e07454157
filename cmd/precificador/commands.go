package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"precificador/internal/adapters/catalog"
	"precificador/internal/app"
	"precificador/internal/config"
	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/services/questions"
)

var (
	codeA   string
	codeB   string
	timeout time.Duration

	askCategory string
	askMode     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [description]",
	Short: "Run one analysis request and print the flow result as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var askCmd = &cobra.Command{
	Use:   "ask <snapshot.json> <question>",
	Short: "Answer a question against a snapshot file",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the bundled CATMAT snapshot",
}

var snapshotBuildCmd = &cobra.Command{
	Use:   "build <items.json> <snapshot.db>",
	Short: "Build a SQLite CATMAT snapshot from a JSON array of registry records",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotBuild,
}

func init() {
	analyzeCmd.Flags().StringVar(&codeA, "ca", "", "CA code")
	analyzeCmd.Flags().StringVar(&codeB, "catmat", "", "CATMAT code")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall timeout")

	askCmd.Flags().StringVarP(&askCategory, "category", "c", "", "Question category (required in categorizada mode)")
	askCmd.Flags().StringVar(&askMode, "mode", string(domain.ModeAutomatic), "categorizada or automatica")

	snapshotCmd.AddCommand(snapshotBuildCmd)
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoDatabase) {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req := domain.AnalysisRequest{CodeA: codeA, CodeB: codeB}
	if len(args) == 1 {
		req.Description = args[0]
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := app.NewEngine(cfg, logger).Analyze(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := questions.ValidateSnapshotJSON(raw); err != nil {
		return err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	q := domain.Question{ID: "cli", Category: askCategory, Text: args[1]}
	switch domain.AskMode(askMode) {
	case domain.ModeCategorized:
		if strings.TrimSpace(q.Category) == "" {
			return domain.Malformed("--category is required in %s mode", domain.ModeCategorized)
		}
	case domain.ModeAutomatic:
		if q.Category == "" {
			q.Category = questions.InferCategory(q.Text)
		}
	default:
		return domain.Malformed("unsupported question mode %q", askMode)
	}
	answer := questions.NewRouter(cfg.Questions.LowConfidence).Route(snap, q)
	return printJSON(cmd.OutOrStdout(), answer)
}

func runSnapshotBuild(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	var records []domain.RegistryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}
	n, err := catalog.Build(cmd.Context(), args[1], records)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d items written to %s\n", n, args[1])
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
