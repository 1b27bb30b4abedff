// Command dojo serves a browser-facing relay in front of an AG-UI endpoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/dojo"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:          "dojo",
		Short:        "Relay browser chat to an AG-UI endpoint",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envFile)
		},
	}
	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.LoadDojoFrom(envFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logger.Sync()

	app := dojo.NewServer(cfg, logger)
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)

	go func() {
		if err := app.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start dojo", zap.Error(err))
		}
	}()

	logger.Info("dojo running",
		zap.String("url", "http://"+addr),
		zap.String("agui_endpoint", cfg.Endpoint),
		zap.String("static_dir", cfg.StaticDir),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown dojo gracefully", zap.Error(err))
	}
	return nil
}
