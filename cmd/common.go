package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bloodlab/internal/analysis"
	"bloodlab/internal/config"
	"bloodlab/internal/ocr"
	"bloodlab/internal/report"
)

// loadConfig reads the environment configuration for a command.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("invalid configuration. Please check your .env file: %w", err)
	}
	return cfg, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createOCRService creates the OCR backend selected by OCR_PROVIDER
func createOCRService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.OCRService, error) {
	service, err := ocr.NewService(ctx, cfg.OCRProvider, ocr.DocumentAIConfig{
		ProjectID:   cfg.GoogleCloudProject,
		Location:    cfg.GoogleCloudLocation,
		ProcessorID: cfg.DocumentAIProcessorID,
	})
	if err != nil {
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().Err(err).Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials validation failed. Please set one of:\n\n" +
				"1. GOOGLE_APPLICATION_CREDENTIALS with the path to a service account JSON file\n" +
				"2. GOOGLE_CREDENTIALS with inline service account JSON\n" +
				"3. Application Default Credentials (gcloud auth application-default login)\n\n" +
				"Original error: %w", err)
		}
		log.Error().Err(err).Str("provider", cfg.OCRProvider).Msg("Failed to create OCR service")
		return nil, fmt.Errorf("failed to create OCR service: %w", err)
	}

	log.Debug().Str("provider", cfg.OCRProvider).Msg("OCR service created successfully")
	return service, nil
}

// createAnalyzer creates the OpenAI analyzer from configuration
func createAnalyzer(cfg *config.Config, log zerolog.Logger) (analysis.Analyzer, error) {
	if err := cfg.RequireOpenAI(); err != nil {
		log.Error().Msg("OpenAI API key not configured")
		return nil, fmt.Errorf("OpenAI API key not configured. Please set OPENAI_API_KEY environment variable")
	}

	return analysis.NewChatGPTAnalyzer(analysis.Config{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   cfg.OpenAIMaxTokens,
	})
}

// createRenderer loads the report fonts and builds a renderer. Missing fonts
// are logged and the fallback font is used.
func createRenderer(cfg *config.Config, log zerolog.Logger) *report.Renderer {
	regular, bold := cfg.FontPaths()
	fonts, err := report.LoadFonts(regular, bold)
	if err != nil {
		log.Warn().
			Err(err).
			Str("font", regular).
			Msg("Report font unavailable, falling back to built-in font")
	} else {
		log.Debug().Str("font", regular).Msg("Report font loaded")
	}
	return report.NewRenderer(report.DefaultStyle(fonts))
}

// readTextInput reads a text file argument, or stdin when the argument is
// missing or "-".
func readTextInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

// writeOutput writes data to outputPath, or stdout when the path is empty.
func writeOutput(data []byte, outputPath string, log zerolog.Logger) error {
	if outputPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}

// handleCollaboratorError maps timeouts and cancellation to short messages
func handleCollaboratorError(step string, err error, log zerolog.Logger) error {
	log.Error().Err(err).Str("step", step).Msg("Processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s timed out. Try increasing --timeout", step)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s was canceled", step)
	case strings.Contains(err.Error(), "PERMISSION_DENIED"):
		return fmt.Errorf("%s failed: permission denied. Check the service account roles: %w", step, err)
	default:
		return fmt.Errorf("%s failed: %w", step, err)
	}
}
