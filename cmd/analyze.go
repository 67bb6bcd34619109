package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bloodlab/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text-file|-]",
	Short: "Generate a clinical analysis of blood test text",
	Long: `Send blood test text (usually the output of "bloodlab ocr") to the
configured OpenAI model and print the structured clinical analysis, exactly
as POST /analyze would return it.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key
Optional:
  OPENAI_MODEL, OPENAI_BASE_URL, OPENAI_TEMPERATURE, OPENAI_MAX_TOKENS`,
	Example: `  # Analyze OCR output piped from the ocr command
  bloodlab ocr result.jpg | bloodlab analyze

  # Analyze a text file and save the result
  bloodlab analyze result.txt -o analysis.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().Duration("timeout", 0, "Analysis timeout (default: ANALYSIS_TIMEOUT)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	outputPath, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = cfg.AnalysisTimeout
	}

	text, err := readTextInput(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to analyze")
	}

	analyzer, err := createAnalyzer(cfg, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("model", cfg.OpenAIModel).
		Int("text_length", len(text)).
		Dur("timeout", timeout).
		Msg("Starting analysis")

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	result, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return handleCollaboratorError("analysis", err, log)
	}

	log.Info().Int("analysis_length", len(result)).Msg("Analysis completed successfully")
	return writeOutput([]byte(result), outputPath, log)
}
