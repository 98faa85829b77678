package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	corecfg "github.com/aevon-lab/metric-oracle/internal/core/config"
	"github.com/aevon-lab/metric-oracle/internal/pipeline"
	"github.com/aevon-lab/metric-oracle/internal/server"
	"github.com/aevon-lab/metric-oracle/internal/summarization"
)

const usage = `usage: oracle <command> [-config oracle.yaml]

commands:
  generate   write a random data file and its answers file
  answers    compute the answers file for an existing data file
  validate   compare the results file with the answers file
  serve      run the summarization HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	_ = fs.Parse(os.Args[2:])

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler cancels long-running commands.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	start := time.Now()
	switch command {
	case "generate":
		err = runGenerate(ctx, cfg)
	case "answers":
		err = runAnswers(ctx, cfg)
	case "validate":
		err = runValidate(cfg)
	case "serve":
		err = runServe(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
	slog.Info("Command complete", "command", command, "elapsed", time.Since(start))
}

func runGenerate(ctx context.Context, cfg *corecfg.Config) error {
	kinds, err := cfg.Generator.ParsedKinds()
	if err != nil {
		return err
	}
	gen := pipeline.Generator{
		Records:         cfg.Generator.Records,
		ValuesPerRecord: cfg.Generator.ValuesPerRecord,
		Lower:           cfg.Generator.LowerLimit,
		Upper:           cfg.Generator.UpperLimit,
		Kinds:           kinds,
		NamePrefix:      cfg.Generator.NamePrefix,
		Seed:            cfg.Generator.Seed,
	}
	seed := gen.EffectiveSeed()

	records, err := gen.Generate(seed)
	if err != nil {
		return fmt.Errorf("generate records: %w", err)
	}
	slog.Info("[Generator] Generated records",
		"records", len(records),
		"values_per_record", gen.ValuesPerRecord,
		"seed", seed,
	)

	if err := writeFile(cfg.Files.DataFile, func(f *os.File) error {
		return pipeline.WriteRecords(f, records)
	}); err != nil {
		return err
	}
	slog.Info("[Generator] Wrote data file", "path", cfg.Files.DataFile)

	return buildAndWriteAnswers(ctx, cfg, records)
}

func runAnswers(ctx context.Context, cfg *corecfg.Config) error {
	f, err := os.Open(cfg.Files.DataFile)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	records, err := pipeline.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("read data file %s: %w", cfg.Files.DataFile, err)
	}
	slog.Info("[Answers] Read data file", "path", cfg.Files.DataFile, "records", len(records))

	return buildAndWriteAnswers(ctx, cfg, records)
}

func buildAndWriteAnswers(ctx context.Context, cfg *corecfg.Config, records []pipeline.Record) error {
	for _, s := range cfg.Fixtures.Series {
		records = append(records, pipeline.RecordFromSeries(s))
	}
	if len(cfg.Fixtures.Series) > 0 {
		slog.Info("[Answers] Added fixture series", "dir", cfg.Fixtures.Dir, "series", len(cfg.Fixtures.Series))
	}

	answers, err := pipeline.BuildAnswers(ctx, records, cfg.Oracle.Options(), cfg.Oracle.WorkerCount)
	if err != nil {
		return fmt.Errorf("build answers: %w", err)
	}

	if err := writeFile(cfg.Files.AnswersFile, func(f *os.File) error {
		return pipeline.WriteAnswers(f, answers)
	}); err != nil {
		return err
	}
	slog.Info("[Answers] Wrote answers file", "path", cfg.Files.AnswersFile, "answers", len(answers))
	return nil
}

func runValidate(cfg *corecfg.Config) error {
	results, err := os.Open(cfg.Files.ResultsFile)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	defer results.Close()

	answers, err := os.Open(cfg.Files.AnswersFile)
	if err != nil {
		return fmt.Errorf("open answers file: %w", err)
	}
	defer answers.Close()

	report, err := pipeline.Validate(results, answers, cfg.Files.MaxMismatches)
	if err != nil {
		return err
	}

	if report.Equal {
		slog.Info("[Validate] Validation succeeded", "lines", report.ExpectedLines)
		return nil
	}
	for _, m := range report.Mismatches {
		slog.Warn("[Validate] Mismatch", "line", m.Line, "expected", strconv.Quote(m.Expected), "actual", strconv.Quote(m.Actual))
	}
	if report.LineEndings {
		slog.Warn("[Validate] Results and answers use different line endings (CRLF vs LF)")
	}
	if report.TrailingNewline {
		slog.Warn("[Validate] All lines match; files differ only in the trailing newline")
	}
	return fmt.Errorf("validation failed: %d answer lines, %d result lines, %d mismatches shown (truncated=%t, line_endings=%t, trailing_newline=%t)",
		report.ExpectedLines, report.ActualLines, len(report.Mismatches), report.Truncated, report.LineEndings, report.TrailingNewline)
}

func runServe(ctx context.Context, cfg *corecfg.Config) error {
	svc := summarization.NewService(cfg.Oracle.Options(), cfg.Oracle.WorkerCount, cfg.Server.MaxBodySizeMB)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode)
	svc.RegisterRoutes(srv.Engine)

	// HTTP server blocks until ctx is cancelled.
	return srv.Run(ctx)
}

// writeFile creates path (and its directory) and hands it to write.
func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
