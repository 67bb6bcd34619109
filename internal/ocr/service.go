// Package ocr extracts text from blood-test report images.
//
// Two providers are available behind the OCRService interface:
//   - Google Cloud Vision TEXT_DETECTION (default)
//   - Google Cloud Document AI with an OCR processor
//
// Credentials are resolved in this order:
//   - GOOGLE_CREDENTIALS: inline service account JSON
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file
//   - Application Default Credentials
//
// Supported image formats are JPEG, PNG and GIF, up to MaxImageSizeBytes.
// Raw provider output is cleaned with Normalize before it is handed to callers.
package ocr

import (
	"context"
	"time"
)

// OCRService defines the interface for OCR text extraction services.
type OCRService interface {
	// ExtractText returns the raw text detected in an image. An image without
	// any detectable text yields an empty string and no error.
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)

	// ExtractTextWithMetadata is ExtractText plus provider details.
	ExtractTextWithMetadata(ctx context.Context, image []byte, mimeType string) (*OCRResult, error)

	// Close releases the underlying API client.
	Close() error
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the raw extracted text in reading order.
	Text string `json:"text"`

	// Provider names the backend that produced the result.
	Provider string `json:"provider"`

	// Confidence is the average confidence reported by the provider (0.0 to 1.0), if any.
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the detected languages in the image.
	LanguageCodes []string `json:"language_codes,omitempty"`

	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// SupportedMIMETypes lists the image content types accepted for upload.
var SupportedMIMETypes = []string{"image/jpeg", "image/png", "image/gif"}

// IsSupportedMIMEType reports whether an upload with this content type may be sent to OCR.
func IsSupportedMIMEType(mimeType string) bool {
	for _, t := range SupportedMIMETypes {
		if t == mimeType {
			return true
		}
	}
	return false
}
