// Package main is the entry point for the bookrag ingestion CLI.
package main

import (
	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/bookrag/internal/bookrag"
)

func main() {
	bookrag.NewIngestApp().Run()
}
