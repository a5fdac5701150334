package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"facturas/cmd"
	"facturas/internal/config"
	"facturas/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Fall back to the default logger; commands that need the config report the error
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}
	cmd.SetConfig(cfg, err)

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting Facturas CLI")

	cmd.Execute()

	log.Debug().Msg("Facturas CLI shutdown")
	os.Exit(0)
}
