// The pdf-crop-margins binary is the hyphenated alias of pdfcropmargins;
// both run the same command.
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

func loadEnvVariables() {
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load()
	}
}
