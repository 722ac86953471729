package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nhle/kaizen/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("kaizen: ")

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
