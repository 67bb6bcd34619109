package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"bloodlab/internal/logger"
)

const ProviderDocumentAI = "document-ai"

// DocumentAIConfig holds configuration for a Document AI OCR processor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processor location ("us", "eu").
	Location string

	// ProcessorID is the ID of a processor of type OCR_PROCESSOR.
	ProcessorID string
}

// ProcessorName returns the fully qualified processor resource name.
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIOCRService implements OCRService with a Document AI OCR processor.
type DocumentAIOCRService struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIOCRService creates a processor client for the configured location.
func NewDocumentAIOCRService(ctx context.Context, config DocumentAIConfig) (OCRService, error) {
	const op = "NewDocumentAIOCRService"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	creds := credentialOptions()
	clientOptions = append(clientOptions, creds...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(creds) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("ocr-document-ai"),
	}, nil
}

// ExtractText extracts text from an image.
func (d *DocumentAIOCRService) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	result, err := d.ExtractTextWithMetadata(ctx, image, mimeType)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ExtractTextWithMetadata sends the image as a raw document to the OCR processor.
func (d *DocumentAIOCRService) ExtractTextWithMetadata(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	const op = "ExtractTextWithMetadata"
	startTime := time.Now()

	if err := validateImage(op, image, mimeType); err != nil {
		return nil, err
	}

	req := &documentaipb.ProcessRequest{
		Name: d.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mimeType,
			},
		},
	}

	d.log.Debug().
		Str("processor", req.Name).
		Int("size", len(image)).
		Msg("Sending image to Document AI")

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, d.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result := documentResult(resp.GetDocument())
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	return result, nil
}

func documentResult(doc *documentaipb.Document) *OCRResult {
	result := &OCRResult{
		Text:     doc.GetText(),
		Provider: ProviderDocumentAI,
	}

	var confidenceSum float32
	var confidenceCount int
	languages := make(map[string]bool)
	for _, page := range doc.GetPages() {
		if layout := page.GetLayout(); layout != nil && layout.GetConfidence() > 0 {
			confidenceSum += layout.GetConfidence()
			confidenceCount++
		}
		for _, lang := range page.GetDetectedLanguages() {
			if lang.GetLanguageCode() != "" {
				languages[lang.GetLanguageCode()] = true
			}
		}
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	for code := range languages {
		result.LanguageCodes = append(result.LanguageCodes, code)
	}
	sort.Strings(result.LanguageCodes)

	return result
}

// handleProcessingError maps Document AI status strings onto OCR errors.
func (d *DocumentAIOCRService) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err), fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err), "document format not supported or corrupted")
	case ctxErr(err) != nil:
		return WrapOCRError(op, ctxErr(err), "processing interrupted")
	default:
		return WrapOCRError(op, fmt.Errorf("%w: %w", ErrOCRFailed, err), "Document AI call failed")
	}
}

// ctxErr returns the context error hidden in a gRPC error string, if any.
func ctxErr(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return context.DeadlineExceeded
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return context.Canceled
	}
	return nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAIOCRService) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
