package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/agent"
	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/command"
	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
	"github.com/nbenliogludev/go-browser-command-agent/internal/llm"
	"github.com/nbenliogludev/go-browser-command-agent/internal/observability"
	"github.com/nbenliogludev/go-browser-command-agent/internal/prompt"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "agent-cli [url]",
		Short:         "Drive a browser towards natural-language objectives",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cfgFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			var start string
			if len(args) == 1 {
				start = args[0]
			}
			return run(cmd.Context(), cfg, start, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, start string, in io.Reader, out io.Writer) error {
	logger := observability.Initialize(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	session, err := openSession(cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}()

	extractor, err := browser.NewExtractor(cfg.Agent.Extraction, logger)
	if err != nil {
		return err
	}
	generator, err := llm.New(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	ag := agent.New(
		session,
		extractor,
		generator,
		prompt.NewBuilder(prompt.Options{
			WindowSize:   cfg.Agent.ContextWindow,
			URLLimit:     cfg.Agent.URLLimit,
			ContentLimit: cfg.Agent.ContentLimit,
			SeedExamples: cfg.Agent.SeedExamples,
		}),
		command.NewInterpreter(cfg.Agent.ClickTimeout, cfg.Agent.TypeDelay, logger),
		agent.Options{Delay: cfg.Agent.IterationDelay, Out: out},
		logger,
	)

	r := newREPL(in, out, logger)
	startURL, err := r.startURL(start)
	if err != nil {
		return err
	}
	if err := session.Open(ctx, startURL); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", startURL, err)
	}
	logger.Info("Session ready", zap.String("url", startURL), zap.String("engine", cfg.Browser.Engine))

	return r.objectives(ctx, ag, agent.NewSignalController())
}

func openSession(cfg config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	if cfg.Engine == config.EngineChromedp {
		m, err := browser.NewCDPManager(cfg, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := browser.NewManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
