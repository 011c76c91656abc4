package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yoockh/hotelbridge/config"
	"github.com/yoockh/hotelbridge/internal/logger"
	"github.com/yoockh/hotelbridge/internal/providers/agent"
	"github.com/yoockh/hotelbridge/internal/services"
)

// askCmd does one agent round trip from the terminal, useful for checking
// AI_AGENT_* settings before pointing a voice provider at the server.
func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <text>",
		Short: "Send one utterance to the agent and print the spoken reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()
			a := agent.NewHTTPAgent(config.LoadAgent(), log)
			br := services.NewBridgeService(a, nil, log)

			text, err := br.Ask(context.Background(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
