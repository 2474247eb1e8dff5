package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/logging"
	"github.com/a3tai/mcp-filing-extractor/internal/mcp"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf"
	"github.com/a3tai/mcp-filing-extractor/internal/pipeline"
	"github.com/a3tai/mcp-filing-extractor/internal/publish"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	logger.Debug("starting", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	publisher, closePublisher, err := publish.FromConfig(ctx, cfg, afero.NewOsFs(), logger)
	if err != nil {
		logger.Error("failed to set up publishing", zap.Error(err))
		return 1
	}
	defer closePublisher()

	if cfg.IsExtractMode() {
		return runExtract(ctx, cfg, publisher, logger, os.Stdout)
	}

	server, err := mcp.NewServer(cfg, mcp.WithLogger(logger), mcp.WithPublisher(publisher))
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// runExtract processes the configured input once. Only fatal errors produce
// a non-zero exit code.
func runExtract(ctx context.Context, cfg *config.Config, publisher *publish.Publisher, logger *zap.Logger, out io.Writer) int {
	opts, err := pipeline.OptionsFromConfig(cfg, logger)
	if err != nil {
		logger.Error("invalid field specs", zap.Error(err))
		return 1
	}
	opts.Publisher = publisher

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		if pdf.IsInputError(err) {
			logger.Error("input rejected", zap.String("input", cfg.Input), zap.Error(err))
		} else {
			logger.Error("extraction failed", zap.String("input", cfg.Input), zap.Error(err))
		}
		return 1
	}

	fmt.Fprintf(out, "Extraction complete. Output saved to %s and %s.\n", result.RecordPath, result.SummaryPath)
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	return 0
}

// printVersion prints version information
func printVersion(out io.Writer) {
	fmt.Fprintf(out, "Filing Extractor\n")
	fmt.Fprintf(out, "Version: %s\n", version)
	fmt.Fprintf(out, "Build Time: %s\n", buildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(out, "Built with: %s\n", runtime.Version())
}
