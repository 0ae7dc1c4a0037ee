package main

import (
	"os"

	"github.com/joho/godotenv"

	"pdfcropmargins/app/cli"
)

func init() {
	loadEnvVariables()
}

func main() {
	cli.Execute()
}

// loadEnvVariables picks up a .env file when one exists; the tool works
// without one, so a missing file is not an error.
func loadEnvVariables() {
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load()
	}
}
