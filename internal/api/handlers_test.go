package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leadlens/leadlens/internal/analysis"
	"github.com/leadlens/leadlens/internal/router"
)

type stubSentiment struct {
	result *analysis.Result
	err    error
	got    analysis.SentimentInput
	calls  int
}

func (s *stubSentiment) Analyze(_ context.Context, in analysis.SentimentInput) (*analysis.Result, error) {
	s.calls++
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubEmail struct {
	result *analysis.Result
	err    error
	got    string
	calls  int
}

func (s *stubEmail) Validate(_ context.Context, email string) (*analysis.Result, error) {
	s.calls++
	s.got = email
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubWebsite struct {
	result *analysis.Result
	err    error
	got    string
	calls  int
}

func (s *stubWebsite) Analyze(_ context.Context, url string) (*analysis.Result, error) {
	s.calls++
	s.got = url
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func analysisResult(key, value string) *analysis.Result {
	return &analysis.Result{
		Data:     map[string]any{key: value},
		Provider: "groq",
		Latency:  250 * time.Millisecond,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAnalyzeSentimentSuccess(t *testing.T) {
	stub := &stubSentiment{result: analysisResult("sentiment", "positive")}
	handler := NewAnalysisHandler(Services{Sentiment: stub})

	rec := postJSON(t, handler.AnalyzeSentiment,
		`{"email_content":"  We need pricing by Friday.  ","subject":"Pricing","sender_email":"buyer@example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["status"] != "completed" {
		t.Errorf("Expected status completed, got %v", body["status"])
	}
	if body["provider"] != "groq" {
		t.Errorf("Expected provider groq, got %v", body["provider"])
	}
	if body["latency_seconds"] != 0.25 {
		t.Errorf("Expected latency_seconds 0.25, got %v", body["latency_seconds"])
	}
	data, ok := body["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("Expected analysis object, got %T", body["analysis"])
	}
	if data["sentiment"] != "positive" {
		t.Errorf("Expected sentiment positive, got %v", data["sentiment"])
	}
	timestamp, _ := body["analyzed_at"].(string)
	if !strings.HasSuffix(timestamp, "Z") {
		t.Errorf("Expected UTC timestamp with Z suffix, got %q", timestamp)
	}

	if stub.got.Content != "We need pricing by Friday." {
		t.Errorf("Expected trimmed content, got %q", stub.got.Content)
	}
	if stub.got.Subject != "Pricing" || stub.got.Sender != "buyer@example.com" {
		t.Errorf("Expected subject and sender to pass through, got %+v", stub.got)
	}
}

func TestAnalyzeSentimentRequiresContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"blank content", `{"email_content":"   "}`},
		{"empty body", ``},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			stub := &stubSentiment{result: analysisResult("sentiment", "positive")}
			handler := NewAnalysisHandler(Services{Sentiment: stub})

			rec := postJSON(t, handler.AnalyzeSentiment, testCase.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
			body := decodeResponse(t, rec)
			if body["error"] != "Email content is required" {
				t.Errorf("Expected required-content error, got %v", body["error"])
			}
			if stub.calls != 0 {
				t.Errorf("Expected no analysis call, got %d", stub.calls)
			}
		})
	}
}

func TestAnalyzeSentimentRejectsMalformedJSON(t *testing.T) {
	handler := NewAnalysisHandler(Services{Sentiment: &stubSentiment{}})

	rec := postJSON(t, handler.AnalyzeSentiment, `{"email_content":`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["error"] != "Request body must be valid JSON" {
		t.Errorf("Expected malformed-JSON error, got %v", body["error"])
	}
}

func TestAnalyzeSentimentRoutingFailure(t *testing.T) {
	stub := &stubSentiment{err: &router.ExhaustedError{Attempts: 2, LastErr: errors.New("connection refused")}}
	handler := NewAnalysisHandler(Services{Sentiment: stub})

	rec := postJSON(t, handler.AnalyzeSentiment, `{"email_content":"hello"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	message, _ := body["error"].(string)
	if !strings.Contains(message, "exhausted") {
		t.Errorf("Expected exhaustion message, got %q", message)
	}
}

func TestValidateEmailSuccess(t *testing.T) {
	stub := &stubEmail{result: analysisResult("risk_level", "low")}
	handler := NewAnalysisHandler(Services{Email: stub})

	rec := postJSON(t, handler.ValidateEmail, `{"email":"  buyer@example.com  "}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.got != "buyer@example.com" {
		t.Errorf("Expected trimmed email, got %q", stub.got)
	}
	body := decodeResponse(t, rec)
	data, _ := body["analysis"].(map[string]any)
	if data["risk_level"] != "low" {
		t.Errorf("Expected risk_level low, got %v", data["risk_level"])
	}
}

func TestValidateEmailRequiresAddress(t *testing.T) {
	stub := &stubEmail{result: analysisResult("risk_level", "low")}
	handler := NewAnalysisHandler(Services{Email: stub})

	rec := postJSON(t, handler.ValidateEmail, `{"email":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["error"] != "Email address is required" {
		t.Errorf("Expected required-address error, got %v", body["error"])
	}
	if stub.calls != 0 {
		t.Errorf("Expected no validation call, got %d", stub.calls)
	}
}

func TestMonitorWebsiteSuccess(t *testing.T) {
	stub := &stubWebsite{result: analysisResult("website_status", "completed")}
	handler := NewAnalysisHandler(Services{Website: stub})

	rec := postJSON(t, handler.MonitorWebsite, `{"website_url":"https://acme.example"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.got != "https://acme.example" {
		t.Errorf("Expected website_url to pass through, got %q", stub.got)
	}
}

func TestMonitorWebsiteAcceptsLegacyURLKey(t *testing.T) {
	stub := &stubWebsite{result: analysisResult("website_status", "completed")}
	handler := NewAnalysisHandler(Services{Website: stub})

	rec := postJSON(t, handler.MonitorWebsite, `{"url":"https://legacy.example"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if stub.got != "https://legacy.example" {
		t.Errorf("Expected url fallback, got %q", stub.got)
	}
}

func TestMonitorWebsitePrefersWebsiteURL(t *testing.T) {
	stub := &stubWebsite{result: analysisResult("website_status", "completed")}
	handler := NewAnalysisHandler(Services{Website: stub})

	postJSON(t, handler.MonitorWebsite, `{"website_url":"https://acme.example","url":"https://other.example"}`)

	if stub.got != "https://acme.example" {
		t.Errorf("Expected website_url to win over url, got %q", stub.got)
	}
}

func TestMonitorWebsiteRequiresURL(t *testing.T) {
	stub := &stubWebsite{result: analysisResult("website_status", "completed")}
	handler := NewAnalysisHandler(Services{Website: stub})

	rec := postJSON(t, handler.MonitorWebsite, `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["error"] != "Website URL is required" {
		t.Errorf("Expected required-URL error, got %v", body["error"])
	}
	if stub.calls != 0 {
		t.Errorf("Expected no analysis call, got %d", stub.calls)
	}
}

func TestIsoTimestamp(t *testing.T) {
	stamp := isoTimestamp()
	if !strings.HasSuffix(stamp, "Z") {
		t.Errorf("Expected Z suffix, got %q", stamp)
	}
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("Expected RFC3339-parseable timestamp, got %q: %v", stamp, err)
	}
}
