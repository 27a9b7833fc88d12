package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ivkor/sprintbot/bot"
	"github.com/ivkor/sprintbot/config"
)

var rootCmd = &cobra.Command{
	Use:   "sprintbot",
	Short: "Spaced-repetition math sprint bot for Telegram",
	Long:  "SprintBot delivers short math sprints over Telegram: weighted question batches, button-driven sessions, and a debt queue that makes every wrong answer come back.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deliverCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
}

// newBot builds a configured bot for a command run.
func newBot() (*bot.Bot, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	b, err := bot.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return b, cfg, nil
}
