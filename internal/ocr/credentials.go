package ocr

import (
	"os"

	"google.golang.org/api/option"
)

// MaxImageSizeBytes is the largest image accepted for synchronous OCR (20MB)
const MaxImageSizeBytes = 20 * 1024 * 1024

// credentialOptions resolves Google Cloud credentials from the environment.
// An empty result means the client should fall back to Application Default Credentials.
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}

// validateImage applies the checks shared by every provider before a remote call.
func validateImage(op string, image []byte, mimeType string) error {
	if len(image) == 0 {
		return WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageSizeBytes {
		return WrapOCRError(op, ErrImageTooLarge, "")
	}
	if !IsSupportedMIMEType(mimeType) {
		return WrapOCRError(op, ErrUnsupportedFormat, mimeType)
	}
	return nil
}
