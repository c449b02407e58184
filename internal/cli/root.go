package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sixhats/internal/adapter/memory"
	"sixhats/internal/adapter/openai"
	"sixhats/internal/config"
	"sixhats/internal/domain"
	"sixhats/internal/observability"
	"sixhats/internal/usecase/chat"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "sixhats",
	Short:         "Run every question past six thinking hats and a final synthesis",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sixhats %s\n", Version)
	},
}

var (
	flagConfig  string
	flagEnv     string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", ".env", "dotenv file loaded into the environment")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.AddCommand(versionCmd)
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// app is everything a command needs once config is loaded.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	session *chat.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig, flagEnv)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("detail", w))
	}

	registry, err := domain.NewRegistry(cfg.Personas)
	if err != nil {
		return nil, err
	}

	client := openai.NewClientWithBaseURL(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	turns, err := chat.NewOrchestrator(client, registry, cfg.ModelConfig(), logger.Named("turn"))
	if err != nil {
		return nil, err
	}
	session := chat.NewService(memory.NewStore(), turns, logger.Named("session"))

	return &app{cfg: cfg, logger: logger, session: session}, nil
}
