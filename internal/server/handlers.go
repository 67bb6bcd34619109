package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bloodlab/internal/ocr"
	"bloodlab/internal/report"
)

// User facing messages returned in {"error": ...} bodies.
const (
	msgNoFile          = "파일을 선택해주세요."
	msgUnsupportedType = "지원되지 않는 파일 형식입니다. JPG, PNG, GIF 파일만 업로드 가능합니다."
	msgFileTooLarge    = "파일 크기가 너무 큽니다."
	msgNoTextExtracted = "텍스트를 추출할 수 없습니다. 이미지를 확인해주세요."
	msgUploadFailed    = "파일 처리 중 오류가 발생했습니다: "
	msgEmptyText       = "텍스트가 없습니다."
	msgInvalidBody     = "요청 형식이 올바르지 않습니다."
)

// ReportFilenameLayout names generated reports, e.g. clinical_lab_report_20240305_090700.pdf.
const ReportFilenameLayout = "clinical_lab_report_20060102_150405.pdf"

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Blood Test Analysis API"})
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// handleUpload runs OCR on an uploaded image. Every outcome is a 200 with
// either {"text"} or {"error"}.
func (s *Server) handleUpload(c *gin.Context) {
	log := requestLogger(c)

	// multipart framing needs a little room beyond the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.limits.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusOK, gin.H{"error": msgFileTooLarge})
			return
		}
		c.JSON(http.StatusOK, gin.H{"error": msgNoFile})
		return
	}

	mimeType := contentType(header.Header.Get("Content-Type"))
	if !ocr.IsSupportedMIMEType(mimeType) {
		log.Warn().Str("content_type", mimeType).Str("filename", header.Filename).Msg("Rejected upload")
		c.JSON(http.StatusOK, gin.H{"error": msgUnsupportedType})
		return
	}
	if header.Size > s.limits.MaxUploadBytes {
		c.JSON(http.StatusOK, gin.H{"error": msgFileTooLarge})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": msgUploadFailed + err.Error()})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": msgUploadFailed + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.limits.OCRTimeout)
	defer cancel()

	raw, err := s.ocr.ExtractText(ctx, image, mimeType)
	if err != nil {
		log.Error().Err(err).Int("size", len(image)).Msg("Text extraction failed")
		c.JSON(http.StatusOK, gin.H{"error": msgNoTextExtracted})
		return
	}

	// whitespace-only OCR output is reported as "no text", not as {"text": ""}
	text := ocr.Normalize(raw)
	if text == "" {
		log.Info().Int("size", len(image)).Msg("No text detected in upload")
		c.JSON(http.StatusOK, gin.H{"error": msgNoTextExtracted})
		return
	}

	log.Debug().Int("size", len(image)).Int("chars", len(text)).Msg("Upload processed")
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	log := requestLogger(c)

	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyText})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.limits.AnalysisTimeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(ctx, req.Text)
	if err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	log := requestLogger(c)

	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusOK, gin.H{"error": msgEmptyText})
		return
	}

	now := s.now()
	blocks := report.Build(req.Text, now)

	pdf, err := s.renderer.RenderContext(c.Request.Context(), blocks)
	if err != nil {
		log.Error().Err(err).Int("blocks", len(blocks)).Msg("Report rendering failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := now.Format(ReportFilenameLayout)
	c.DataFromReader(http.StatusOK, int64(pdf.Len()), "application/pdf", pdf, map[string]string{
		"Content-Disposition":           "attachment; filename=" + filename,
		"Access-Control-Expose-Headers": "Content-Disposition, " + requestIDHeader,
	})
}

// contentType strips parameters from a Content-Type header value.
func contentType(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}
