package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/cleaner"
	"github.com/David-Botos/customer-ingress/pkg/config"
	"github.com/David-Botos/customer-ingress/pkg/observability"
	"github.com/David-Botos/customer-ingress/pkg/pipeline"
	"github.com/David-Botos/customer-ingress/pkg/source"
	"github.com/David-Botos/customer-ingress/pkg/transfer"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", zap.Error(err))
		return err
	}

	if _, err := p.Run(ctx); err != nil {
		logger.Error("Pipeline failed", zap.String("kind", failureKind(err)), zap.Error(err))
		return err
	}
	return nil
}

// failureKind names the class of a pipeline failure for operators
func failureKind(err error) string {
	var (
		unmapped *cleaner.UnmappedCategoryError
		connErr  *transfer.SinkConnectionError
		writeErr *transfer.SinkWriteError
	)

	switch {
	case errors.Is(err, source.ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, source.ErrSourceParse):
		return "source_parse"
	case errors.As(err, &unmapped):
		return "unmapped_category"
	case errors.As(err, &connErr):
		return "sink_connection"
	case errors.As(err, &writeErr):
		if writeErr.Committed {
			return "sink_verify"
		}
		return "sink_write"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "cleaning"
	}
}
