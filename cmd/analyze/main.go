package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"call-duration-analyzer/internal/app"
	"call-duration-analyzer/internal/config"
	"call-duration-analyzer/internal/report"
	"call-duration-analyzer/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Call Duration Analysis")
	fmt.Println(strings.Repeat("=", 60))

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, awsCfg)
	if err != nil {
		slog.Error("failed to connect to record source", "source", cfg.Source, "err", err)
		os.Exit(1)
	}
	defer a.Close()
	slog.Info("connected to record source", "source", cfg.Source, "table", cfg.Table)

	out, err := a.Analyzer().Analyze(ctx, usecase.AnalyzeInput{Days: cfg.WindowDays})
	if err != nil {
		slog.Error("analysis failed", "err", err)
		a.Close()
		os.Exit(1)
	}
	if out.Fetched == 0 {
		fmt.Printf("No webhooks found for the past %d days.\n", cfg.WindowDays)
		return
	}
	if len(out.Records) == 0 {
		fmt.Println("No call data could be extracted from the webhooks.")
		return
	}

	path := filepath.Join(cfg.OutputDir, report.FileName(time.Now()))
	if err := writeReport(path, out); err != nil {
		slog.Error("failed to write report", "path", path, "err", err)
		a.Close()
		os.Exit(1)
	}
	slog.Info("report written", "path", path, "rows", len(out.Records))

	fmt.Println()
	if err := report.WriteSummary(os.Stdout, out.Summary); err != nil {
		slog.Error("failed to print summary", "err", err)
	}
	fmt.Println()
	fmt.Printf("Output file: %s\n", path)
}

func writeReport(path string, out usecase.AnalyzeOutput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, out.Records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
