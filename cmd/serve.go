package cmd

import (
	"github.com/spf13/cobra"
)

var serveWebhook bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, answering taps and commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, cfg, err := newBot()
		if err != nil {
			return err
		}
		defer b.Close()

		if serveWebhook {
			return b.ServeWebhook(cfg.WebhookAddr, cfg.WebhookPath)
		}
		b.StartPolling()
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWebhook, "webhook", false, "receive updates over HTTP instead of long polling")
}
