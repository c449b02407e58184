package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sixhats/internal/adapter/httpserver"
	"sixhats/internal/adapter/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversation page, optionally with the Telegram bot",
	RunE:  runServe,
}

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run only the Telegram bot",
	RunE:  runTelegram,
}

var (
	flagAddr     string
	flagTelegram bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(telegramCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&flagTelegram, "telegram", false, "Also run the Telegram bot on the same session")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	addr := a.cfg.HTTPAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	var bot *telegram.Bot
	if flagTelegram {
		bot, err = telegram.NewBot(a.cfg, a.session, a.logger.Named("telegram"))
		if err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpserver.Server{Session: a.session, Logger: a.logger.Named("http")}.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if bot != nil {
		g.Go(func() error {
			return bot.Run(ctx)
		})
	}

	err = g.Wait()
	if cmd.Context().Err() != nil {
		a.logger.Info("shutdown", zap.Error(err))
		return nil
	}
	return err
}

func runTelegram(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	bot, err := telegram.NewBot(a.cfg, a.session, a.logger.Named("telegram"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := bot.Run(ctx); err != nil {
		if ctx.Err() != nil {
			a.logger.Info("shutdown", zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}
