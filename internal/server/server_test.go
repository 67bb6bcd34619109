package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bloodlab/internal/ocr"
	"bloodlab/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeOCR struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeOCR) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func (f *fakeOCR) ExtractTextWithMetadata(ctx context.Context, image []byte, mimeType string) (*ocr.OCRResult, error) {
	text, err := f.ExtractText(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	return &ocr.OCRResult{Text: text, Provider: "fake"}, nil
}

func (f *fakeOCR) Close() error { return nil }

type fakeAnalyzer struct {
	analysis string
	err      error
	gotText  string
	deadline bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	f.gotText = text
	_, f.deadline = ctx.Deadline()
	return f.analysis, f.err
}

var fixedNow = time.Date(2024, 3, 5, 9, 7, 30, 0, time.UTC)

func newTestServer(o *fakeOCR, a *fakeAnalyzer) http.Handler {
	limits := Limits{MaxUploadBytes: 1024, OCRTimeout: time.Second, AnalysisTimeout: time.Second}
	renderer := report.NewRenderer(report.DefaultStyle(report.FontSet{}))
	return New(o, a, renderer, limits, WithClock(func() time.Time { return fixedNow })).Handler()
}

func uploadRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="result.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not a JSON object: %q (%v)", rec.Body.String(), err)
	}
	return got
}

func TestUploadNormalizesText(t *testing.T) {
	o := &fakeOCR{text: "혈당 120mg/dL↑\n콜레스테롤   250mg/dL"}
	rec := httptest.NewRecorder()
	newTestServer(o, &fakeAnalyzer{}).ServeHTTP(rec, uploadRequest(t, "image/png", []byte("png bytes")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode(t, rec)
	if want := "혈당 120 mg/dL↑ 콜레스테롤 250 mg/dL"; got["text"] != want {
		t.Errorf("text = %q, want %q", got["text"], want)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	o := &fakeOCR{text: "unused"}
	rec := httptest.NewRecorder()
	newTestServer(o, &fakeAnalyzer{}).ServeHTTP(rec, uploadRequest(t, "application/pdf", []byte("%PDF-1.4")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec); got["error"] != msgUnsupportedType {
		t.Errorf("error = %q", got["error"])
	}
	if n := o.calls.Load(); n != 0 {
		t.Errorf("OCR called %d times for an unsupported type", n)
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name string
		ocr  *fakeOCR
		data []byte
		want string
	}{
		{name: "ocr failure", ocr: &fakeOCR{err: errors.New("vision unavailable")}, data: []byte("img"), want: msgNoTextExtracted},
		{name: "no text", ocr: &fakeOCR{text: "  \n "}, data: []byte("img"), want: msgNoTextExtracted},
		{name: "too large", ocr: &fakeOCR{text: "x"}, data: bytes.Repeat([]byte("a"), 2048), want: msgFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(tt.ocr, &fakeAnalyzer{}).ServeHTTP(rec, uploadRequest(t, "image/jpeg", tt.data))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decode(t, rec)
			if got["error"] != tt.want {
				t.Errorf("error = %q, want %q", got["error"], tt.want)
			}
			if _, ok := got["text"]; ok {
				t.Error("unexpected text field")
			}
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	newTestServer(&fakeOCR{}, &fakeAnalyzer{}).ServeHTTP(rec, req)

	if got := decode(t, rec); got["error"] != msgNoFile {
		t.Errorf("error = %q", got["error"])
	}
}

func TestAnalyze(t *testing.T) {
	a := &fakeAnalyzer{analysis: "1. 검사 결과 요약"}
	rec := httptest.NewRecorder()
	newTestServer(&fakeOCR{}, a).ServeHTTP(rec, jsonRequest("/analyze", `{"text":"혈당 120 mg/dL"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec); got["analysis"] != "1. 검사 결과 요약" {
		t.Errorf("analysis = %q", got["analysis"])
	}
	if a.gotText != "혈당 120 mg/dL" {
		t.Errorf("analyzer got %q", a.gotText)
	}
	if !a.deadline {
		t.Error("analyzer context has no deadline")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		analyzer   *fakeAnalyzer
		wantStatus int
		wantError  string
	}{
		{name: "empty text", body: `{"text":""}`, analyzer: &fakeAnalyzer{}, wantStatus: http.StatusBadRequest, wantError: msgEmptyText},
		{name: "missing text", body: `{}`, analyzer: &fakeAnalyzer{}, wantStatus: http.StatusBadRequest, wantError: msgEmptyText},
		{name: "malformed json", body: `{"text":`, analyzer: &fakeAnalyzer{}, wantStatus: http.StatusBadRequest, wantError: msgInvalidBody},
		{name: "collaborator failure", body: `{"text":"a"}`, analyzer: &fakeAnalyzer{err: errors.New("rate limited")}, wantStatus: http.StatusInternalServerError, wantError: "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(&fakeOCR{}, tt.analyzer).ServeHTTP(rec, jsonRequest("/analyze", tt.body))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decode(t, rec); got["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", got["error"], tt.wantError)
			}
		})
	}
}

func TestGenerateReport(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"text":"1. 검사 결과\n| 항목 | 결과 |\n| 혈당 | 120 |\n- 공복 혈당 상승"}`
	newTestServer(&fakeOCR{}, &fakeAnalyzer{}).ServeHTTP(rec, jsonRequest("/generate_report", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "attachment; filename=clinical_lab_report_20240305_090730.pdf"
	if cd := rec.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("Content-Disposition = %q, want %q", cd, want)
	}
	eh := rec.Header().Get("Access-Control-Expose-Headers")
	for _, want := range []string{"Content-Disposition", requestIDHeader} {
		if !strings.Contains(eh, want) {
			t.Errorf("Access-Control-Expose-Headers = %q, want it to include %s", eh, want)
		}
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("body does not start with a PDF header")
	}
}

func TestGenerateReportEmptyText(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeOCR{}, &fakeAnalyzer{}).ServeHTTP(rec, jsonRequest("/generate_report", `{"text":""}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/pdf") {
		t.Errorf("Content-Type = %q for empty text", ct)
	}
	if got := decode(t, rec); got["error"] != msgEmptyText {
		t.Errorf("error = %q", got["error"])
	}
}

func TestRootAndPing(t *testing.T) {
	h := newTestServer(&fakeOCR{}, &fakeAnalyzer{})

	for path, want := range map[string]string{
		"/":     "Welcome to Blood Test Analysis API",
		"/ping": "pong",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
		if got := decode(t, rec); got["message"] != want {
			t.Errorf("GET %s message = %q, want %q", path, got["message"], want)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newTestServer(&fakeOCR{}, &fakeAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "lab-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "lab-123" {
		t.Errorf("%s = %q, want lab-123", requestIDHeader, got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if got := rec.Header().Get(requestIDHeader); len(got) != 36 {
		t.Errorf("generated %s = %q, want a UUID", requestIDHeader, got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/generate_report", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestServer(&fakeOCR{}, &fakeAnalyzer{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(requestID(), accessLog(), recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if got := decode(t, rec); got["error"] == "" {
		t.Error("missing error message")
	}
}

func TestGenerateReportExposesHeadersWithCORS(t *testing.T) {
	req := jsonRequest("/generate_report", `{"text":"1. 검사 결과"}`)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	newTestServer(&fakeOCR{}, &fakeAnalyzer{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	eh := rec.Header().Get("Access-Control-Expose-Headers")
	if !strings.Contains(eh, "Content-Disposition") || !strings.Contains(eh, requestIDHeader) {
		t.Errorf("Access-Control-Expose-Headers = %q", eh)
	}
}
