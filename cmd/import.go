package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ivkor/sprintbot/config"
	"github.com/ivkor/sprintbot/database"
	"github.com/ivkor/sprintbot/models"
)

var importCmd = &cobra.Command{
	Use:   "import <questions.json>",
	Short: "Load questions from a JSON file into the bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var questions []models.Question
		if err := json.Unmarshal(file, &questions); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		db, err := database.New(config.DatabasePath())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		imported := 0
		for i := range questions {
			q := &questions[i]
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			if err := db.InsertQuestion(cmd.Context(), q); err != nil {
				return fmt.Errorf("question %d: %w", i, err)
			}
			imported++
		}

		fmt.Printf("Imported %d questions\n", imported)
		return nil
	},
}
