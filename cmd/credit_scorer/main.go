// Package main provides the entry point for the credit scorer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "credit_scorer",
	Short: "Credit scoring with traditional and alternative data",
	Long:  "Credit scorer trains ensemble default-risk models over traditional and alternative borrower data, scores applicants with explanations, and processes loan applications end to end (alternative data, compliance checks, decision documents).",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
