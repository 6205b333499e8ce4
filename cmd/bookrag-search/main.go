// Package main is the entry point for the bookrag search CLI.
package main

import (
	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/bookrag/internal/bookrag"
)

func main() {
	bookrag.NewSearchApp().Run()
}
