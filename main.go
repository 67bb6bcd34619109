package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"bloodlab/cmd"
	"bloodlab/internal/config"
	"bloodlab/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Configuration errors are reported again by the command that needs it
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting bloodlab")

	cmd.Execute()

	log.Debug().Msg("bloodlab shutdown")
	os.Exit(0)
}
