package ocr

import (
	"context"
	"fmt"
)

// NewService builds the OCR backend named by provider ("vision" or "documentai").
func NewService(ctx context.Context, provider string, docAI DocumentAIConfig) (OCRService, error) {
	switch provider {
	case "", "vision":
		return NewGoogleVisionOCRService(ctx)
	case "documentai":
		return NewDocumentAIOCRService(ctx, docAI)
	default:
		return nil, WrapOCRError("NewService", ErrInvalidConfiguration, fmt.Sprintf("unknown provider %q", provider))
	}
}
