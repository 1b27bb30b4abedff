// Command client is an interactive terminal chat against an AG-UI server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/agui"
	"github.com/xiaot623/gogo/agui/internal/chat"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

const (
	agentName         = "ClientAgent"
	agentInstructions = "You are a helpful assistant."
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "client",
		Short: "Chat with an agent served over AG-UI",
		// Errors are reported by us, not with the usage text.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFile)
		},
	}
	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read before the environment")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.LoadClientFrom(envFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Printf("Connecting to AG-UI server at: %s\n\n", cfg.ServerURL)

	client := agui.NewClient(cfg.ServerURL, agui.WithLogger(logger))
	a := agent.New(client,
		agent.WithName(agentName),
		agent.WithInstructions(agentInstructions),
		agent.WithLogger(logger),
	)

	return chat.NewLoop(a, os.Stdin, os.Stdout, chat.WithLogger(logger)).Run(ctx)
}
