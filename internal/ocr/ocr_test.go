package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestIsSupportedMIMEType(t *testing.T) {
	for _, mt := range []string{"image/jpeg", "image/png", "image/gif"} {
		if !IsSupportedMIMEType(mt) {
			t.Errorf("IsSupportedMIMEType(%q) = false", mt)
		}
	}
	for _, mt := range []string{"", "application/pdf", "image/webp", "IMAGE/PNG", "text/plain"} {
		if IsSupportedMIMEType(mt) {
			t.Errorf("IsSupportedMIMEType(%q) = true", mt)
		}
	}
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		image    []byte
		mimeType string
		want     error
	}{
		{name: "empty", image: nil, mimeType: "image/png", want: ErrEmptyImage},
		{name: "too large", image: make([]byte, MaxImageSizeBytes+1), mimeType: "image/png", want: ErrImageTooLarge},
		{name: "pdf", image: []byte("%PDF-1.4"), mimeType: "application/pdf", want: ErrUnsupportedFormat},
		{name: "ok", image: []byte{0x89, 'P', 'N', 'G'}, mimeType: "image/png", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImage("test", tt.image, tt.mimeType)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("validateImage() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("validateImage() error = %v, want %v", err, tt.want)
			}
			var ocrErr *OCRError
			if !errors.As(err, &ocrErr) || ocrErr.Op != "test" {
				t.Errorf("validateImage() error is not an OCRError with op: %#v", err)
			}
		})
	}
}

func TestWrapOCRErrorKeepsFirstWrap(t *testing.T) {
	inner := WrapOCRError("inner", ErrOCRFailed, "boom")
	outer := WrapOCRError("outer", inner, "ignored")

	if outer != inner {
		t.Errorf("WrapOCRError re-wrapped an OCRError: %v", outer)
	}
	if !strings.Contains(outer.Error(), "ocr: inner failed: boom") {
		t.Errorf("Error() = %q", outer.Error())
	}
	if WrapOCRError("nil", nil, "") != nil {
		t.Error("WrapOCRError(nil) should be nil")
	}
}

func TestParseVisionResponse(t *testing.T) {
	resp := &visionpb.AnnotateImageResponse{
		TextAnnotations: []*visionpb.EntityAnnotation{
			{Description: "검체 결과\nGlucose 130mg/dL", Locale: "ko"},
			{Description: "검체"},
		},
		FullTextAnnotation: &visionpb.TextAnnotation{
			Pages: []*visionpb.Page{
				{Property: &visionpb.TextAnnotation_TextProperty{
					DetectedLanguages: []*visionpb.TextAnnotation_DetectedLanguage{
						{LanguageCode: "en"}, {LanguageCode: "ko"},
					},
				}},
			},
		},
	}

	result, err := parseVisionResponse(resp)
	if err != nil {
		t.Fatalf("parseVisionResponse() error = %v", err)
	}
	if result.Text != "검체 결과\nGlucose 130mg/dL" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Provider != ProviderVision {
		t.Errorf("Provider = %q", result.Provider)
	}
	if strings.Join(result.LanguageCodes, ",") != "en,ko" {
		t.Errorf("LanguageCodes = %v", result.LanguageCodes)
	}
}

func TestParseVisionResponseNoText(t *testing.T) {
	result, err := parseVisionResponse(&visionpb.AnnotateImageResponse{})
	if err != nil {
		t.Fatalf("parseVisionResponse() error = %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
}

func TestParseVisionResponseError(t *testing.T) {
	resp := &visionpb.AnnotateImageResponse{
		Error: &status.Status{Code: 3, Message: "Bad image data."},
	}

	_, err := parseVisionResponse(resp)
	if !errors.Is(err, ErrOCRFailed) {
		t.Fatalf("parseVisionResponse() error = %v, want ErrOCRFailed", err)
	}
	if !strings.Contains(err.Error(), "Bad image data.") {
		t.Errorf("error does not carry API message: %v", err)
	}
}

func TestDocumentResult(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "CBC\nWBC 7.2",
		Pages: []*documentaipb.Document_Page{
			{
				Layout: &documentaipb.Document_Page_Layout{Confidence: 0.9},
				DetectedLanguages: []*documentaipb.Document_Page_DetectedLanguage{
					{LanguageCode: "ko"},
				},
			},
			{Layout: &documentaipb.Document_Page_Layout{Confidence: 0.7}},
		},
	}

	result := documentResult(doc)
	if result.Text != "CBC\nWBC 7.2" || result.Provider != ProviderDocumentAI {
		t.Errorf("result = %+v", result)
	}
	if result.Confidence < 0.79 || result.Confidence > 0.81 {
		t.Errorf("Confidence = %v, want 0.8", result.Confidence)
	}
	if len(result.LanguageCodes) != 1 || result.LanguageCodes[0] != "ko" {
		t.Errorf("LanguageCodes = %v", result.LanguageCodes)
	}
}

func TestDocumentAIConfigProcessorName(t *testing.T) {
	cfg := DocumentAIConfig{ProjectID: "lab", Location: "eu", ProcessorID: "ocr1"}
	if got := cfg.ProcessorName(); got != "projects/lab/locations/eu/processors/ocr1" {
		t.Errorf("ProcessorName() = %q", got)
	}
}

func TestNewDocumentAIOCRServiceRequiresConfig(t *testing.T) {
	_, err := NewDocumentAIOCRService(context.Background(), DocumentAIConfig{Location: "us"})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestNewServiceUnknownProvider(t *testing.T) {
	_, err := NewService(context.Background(), "tesseract", DocumentAIConfig{})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestHandleProcessingError(t *testing.T) {
	svc := &DocumentAIOCRService{config: DocumentAIConfig{ProcessorID: "ocr1"}}

	tests := []struct {
		msg  string
		want error
	}{
		{msg: "rpc error: code = NotFound desc = NOT_FOUND", want: ErrInvalidConfiguration},
		{msg: "rpc error: code = InvalidArgument desc = INVALID_ARGUMENT", want: ErrUnsupportedFormat},
		{msg: "rpc error: code = DeadlineExceeded desc = context deadline exceeded", want: context.DeadlineExceeded},
		{msg: "rpc error: code = Unavailable", want: ErrOCRFailed},
	}

	for _, tt := range tests {
		err := svc.handleProcessingError("op", errors.New(tt.msg))
		if !errors.Is(err, tt.want) {
			t.Errorf("handleProcessingError(%q) = %v, want %v", tt.msg, err, tt.want)
		}
	}
}
