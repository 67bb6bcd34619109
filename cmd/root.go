package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bloodlab/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "bloodlab",
	Short: "Blood test OCR, analysis and PDF report service",
	Long: `bloodlab turns a photo of a blood test result into a clinical report.

It extracts the text with Google Cloud OCR, asks an OpenAI model for a
structured clinical-pathology analysis and renders the result as an A4 PDF.
Run "bloodlab serve" for the HTTP API, or use the ocr, analyze and report
commands to run a single pipeline step from the shell.`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
