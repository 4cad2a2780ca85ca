package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-ai-workers/internal/aiquery"
	"library-ai-workers/internal/app"
	"library-ai-workers/internal/common/config"
	"library-ai-workers/internal/common/logger"
)

type invalidator interface {
	Invalidate(ctx context.Context, ownerID string) (int, error)
	InvalidateAdmin(ctx context.Context) (int, error)
}

// engine is what the commands need from the assembled stack. cache is nil when
// the answer cache is disabled.
type engine struct {
	processor aiquery.Processor
	cache     invalidator
	close     func()
}

type openEngineFunc func(ctx context.Context, configPath, logLevel string) (*engine, error)

func defaultOpenEngine(ctx context.Context, configPath, logLevel string) (*engine, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	log := logger.NewStructured(logLevel, "console")
	stack, err := app.Build(ctx, cfg, app.Options{ConnectAttempts: 1}, log)
	if err != nil {
		return nil, err
	}

	e := &engine{processor: stack.Processor, close: stack.Close}
	if stack.Cache != nil {
		e.cache = stack.Cache
	}
	return e, nil
}

func newRootCmd(open openEngineFunc) *cobra.Command {
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           "query-cli",
		Short:         "Ask natural-language questions about the book collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to ./configs)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	openFor := func(cmd *cobra.Command) (*engine, error) {
		return open(cmd.Context(), configPath, logLevel)
	}

	root.AddCommand(
		newAskCmd(openFor),
		newExamplesCmd(),
		newInvalidateCmd(openFor),
		newWorkersCmd(),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
