package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cvrag/internal/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram question-answering bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := cfg.TelegramToken()
		if token == "" {
			return fmt.Errorf("telegram token not set (env %s)", cfg.Telegram.TokenEnv)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		b, err := telegram.NewBot(token, svc)
		if err != nil {
			return err
		}
		b.Start(ctx)
		return nil
	},
}
