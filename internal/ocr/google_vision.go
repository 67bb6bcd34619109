package ocr

import (
	"context"
	"fmt"
	"sort"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"bloodlab/internal/logger"
)

const ProviderVision = "google-vision"

// GoogleVisionOCRService implements OCRService using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionOCRService creates a new OCR service with credentials from environment.
func NewGoogleVisionOCRService(ctx context.Context) (OCRService, error) {
	const op = "NewGoogleVisionOCRService"

	opts := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return NewGoogleVisionOCRServiceWithClient(client), nil
}

// NewGoogleVisionOCRServiceWithClient creates a new OCR service with an explicit client.
func NewGoogleVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient) OCRService {
	return &GoogleVisionOCRService{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}
}

// ExtractText extracts text from an image.
func (g *GoogleVisionOCRService) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	result, err := g.ExtractTextWithMetadata(ctx, image, mimeType)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ExtractTextWithMetadata runs TEXT_DETECTION on a single image.
func (g *GoogleVisionOCRService) ExtractTextWithMetadata(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	const op = "ExtractTextWithMetadata"
	startTime := time.Now()

	if err := validateImage(op, image, mimeType); err != nil {
		return nil, err
	}

	g.log.Debug().
		Int("size", len(image)).
		Str("mime_type", mimeType).
		Msg("Sending image to Vision API")

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, fmt.Errorf("%w: %w", ErrOCRFailed, err), "Vision API call failed")
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	result, err := parseVisionResponse(resp.Responses[0])
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.log.Debug().
		Int("text_length", len(result.Text)).
		Dur("duration", result.ProcessingDuration).
		Msg("Vision API response received")

	return result, nil
}

// parseVisionResponse takes the first text annotation, which Vision fills with the
// full detected text; the remaining annotations are individual words.
func parseVisionResponse(resp *visionpb.AnnotateImageResponse) (*OCRResult, error) {
	if resp.GetError() != nil && resp.GetError().GetMessage() != "" {
		return nil, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, resp.GetError().GetMessage())
	}

	result := &OCRResult{Provider: ProviderVision}
	annotations := resp.GetTextAnnotations()
	if len(annotations) == 0 {
		return result, nil
	}

	result.Text = annotations[0].GetDescription()
	result.Confidence = annotations[0].GetConfidence()

	languages := make(map[string]bool)
	for _, page := range resp.GetFullTextAnnotation().GetPages() {
		for _, lang := range page.GetProperty().GetDetectedLanguages() {
			if lang.GetLanguageCode() != "" {
				languages[lang.GetLanguageCode()] = true
			}
		}
	}
	if code := annotations[0].GetLocale(); code != "" {
		languages[code] = true
	}
	for code := range languages {
		result.LanguageCodes = append(result.LanguageCodes, code)
	}
	sort.Strings(result.LanguageCodes)

	return result, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
