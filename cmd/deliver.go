package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// deliverCmd is the cron target: one invocation delivers one sprint to
// the configured chat. Scheduling lives outside the process.
var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Deliver one sprint to the configured chat and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cfg, err := newBot()
		if err != nil {
			return err
		}
		defer b.Close()

		if cfg.ChatID == 0 {
			return errors.New("TELEGRAM_CHAT_ID must be set for deliver")
		}
		return b.Deliver(cmd.Context(), cfg.ChatID)
	},
}
