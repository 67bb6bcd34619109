package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bloodlab/internal/logger"
	"bloodlab/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Extract text from a blood test image",
	Long: `Run OCR on a JPEG, PNG or GIF image of a blood test result and print the
normalized text, exactly as POST /upload would return it.

The OCR backend is selected with OCR_PROVIDER (vision or documentai).

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - when OCR_PROVIDER=documentai`,
	Example: `  # Print normalized text
  bloodlab ocr result.jpg

  # Print the provider output without normalization
  bloodlab ocr result.jpg --raw

  # Save text and metadata as JSON
  bloodlab ocr result.png --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	RawText            string    `json:"raw_text,omitempty"`
	Provider           string    `json:"provider"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	MIMEType           string    `json:"mime_type"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("raw", false, "Print the provider text without normalization")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Duration("timeout", 0, "Processing timeout (default: OCR_TIMEOUT)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	raw, _ := cmd.Flags().GetBool("raw")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = cfg.OCRTimeout
	}

	imagePath := args[0]
	image, mimeType, err := readImage(imagePath, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", imagePath).
		Str("mime_type", mimeType).
		Int("size", len(image)).
		Dur("timeout", timeout).
		Msg("Starting OCR processing")

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	service, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := service.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR service")
		}
	}()

	result, err := service.ExtractTextWithMetadata(ctx, image, mimeType)
	if err != nil {
		return handleCollaboratorError("OCR", err, log)
	}

	text := ocr.Normalize(result.Text)
	if text == "" {
		return fmt.Errorf("no text found in %s. Please check the image", imagePath)
	}

	log.Info().
		Str("provider", result.Provider).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(text)).
		Msg("OCR processing completed successfully")

	var data []byte
	switch {
	case jsonOutput:
		out := OCROutput{
			Text:               text,
			Provider:           result.Provider,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
			FileName:           filepath.Base(imagePath),
			FileSize:           int64(len(image)),
			MIMEType:           mimeType,
		}
		if raw {
			out.RawText = result.Text
		}
		data, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	case raw:
		data = []byte(result.Text)
	default:
		data = []byte(text)
	}

	return writeOutput(data, outputPath, log)
}

// readImage loads an image file and sniffs its content type.
func readImage(path string, log zerolog.Logger) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Image file not found")
			return nil, "", fmt.Errorf("image file not found: %s", path)
		}
		return nil, "", fmt.Errorf("error accessing image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() > ocr.MaxImageSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", info.Size()).
			Int64("max_size", ocr.MaxImageSizeBytes).
			Msg("Image exceeds maximum size limit")
		return nil, "", fmt.Errorf("image too large (%d bytes). Maximum size is %d bytes", info.Size(), ocr.MaxImageSizeBytes)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image file: %w", err)
	}

	mimeType := http.DetectContentType(image)
	if !ocr.IsSupportedMIMEType(mimeType) {
		return nil, "", fmt.Errorf("unsupported image format %q. Only JPG, PNG and GIF are supported", mimeType)
	}
	return image, mimeType, nil
}
