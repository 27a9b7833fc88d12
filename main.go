package main

import (
	"log"
	"os"

	"github.com/ivkor/sprintbot/cmd"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := cmd.Execute(); err != nil {
		log.Fatalf("sprintbot: %v", err)
	}
}
