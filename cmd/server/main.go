// Command server validates connectivity to Azure OpenAI, then serves an agent
// over AG-UI on 127.0.0.1:8888.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/bootstrap"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

func main() {
	var (
		envFile   string
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Foundry Agent Framework AG-UI server",
		SilenceUsage: true,
		// Errors are printed once below; a declined startup prints nothing extra.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envFile, logging.Config{Level: logLevel, Format: logFormat})
		},
	}
	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "log format, overrides LOG_FORMAT (console, json)")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, bootstrap.ErrDeclined) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(envFile string, logCfg logging.Config) error {
	level, format, err := config.LoadLogFrom(envFile)
	if err != nil {
		return err
	}
	if logCfg.Level == "" {
		logCfg.Level = level
	}
	if logCfg.Format == "" {
		logCfg.Format = format
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Startup checks run to completion; an interrupt here ends the process.
	result, err := bootstrap.Run(context.Background(), bootstrap.DefaultDeps(envFile, os.Stdin, os.Stdout, logger))
	if err != nil {
		return err
	}

	app := result.App
	addr := result.Addr()

	// Start server
	go func() {
		if err := app.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("AG-UI server started", zap.String("addr", "http://"+addr+"/"))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
