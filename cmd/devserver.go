package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cinetix-cli/config"
	"cinetix-cli/devapi"
	"cinetix-cli/logger"
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory Cinetix API for local use",
	Long:  `Run an in-memory Cinetix API with seeded films, cinemas and sessions. Data is lost on exit.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Dev.Addr = addr
		}
		log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr})
		if err != nil {
			return err
		}

		server := devapi.New(devapi.Config{
			PaymentSeconds: cfg.Dev.PaymentSeconds,
			JWTSecret:      cfg.Dev.JWTSecret,
			TokenTTL:       cfg.Dev.TokenTTL,
		}, log.Logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(cfg.Dev.Addr) }()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("dev server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	devServerCmd.Flags().String("addr", "", "listen address, overrides CINETIX_DEV_ADDR")
}
