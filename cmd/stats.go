package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivkor/sprintbot/config"
	"github.com/ivkor/sprintbot/database"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question bank statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.New(config.DatabasePath())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("Question bank is empty.")
			return nil
		}

		fmt.Printf("%-12s %10s %10s %10s %9s\n", "CATEGORY", "QUESTIONS", "ATTEMPTS", "CORRECT", "ACCURACY")
		for _, s := range stats {
			accuracy := "-"
			if s.Attempts > 0 {
				accuracy = fmt.Sprintf("%.1f%%", float64(s.Correct)/float64(s.Attempts)*100)
			}
			fmt.Printf("%-12s %10d %10d %10d %9s\n", s.Category, s.Questions, s.Attempts, s.Correct, accuracy)
		}
		return nil
	},
}
