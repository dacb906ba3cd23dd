package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadlens/leadlens/internal/analysis"
)

// SentimentAnalyzer scores buying intent in an email body.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, in analysis.SentimentInput) (*analysis.Result, error)
}

// EmailValidator assesses deliverability of an address.
type EmailValidator interface {
	Validate(ctx context.Context, email string) (*analysis.Result, error)
}

// WebsiteAnalyzer profiles a company website.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) (*analysis.Result, error)
}

// Services bundles the analysis services the handlers dispatch to.
type Services struct {
	Sentiment SentimentAnalyzer
	Email     EmailValidator
	Website   WebsiteAnalyzer
}

// AnalysisHandler serves the three analysis endpoints.
type AnalysisHandler struct {
	services Services
}

// NewAnalysisHandler creates a handler backed by the given services.
func NewAnalysisHandler(services Services) *AnalysisHandler {
	return &AnalysisHandler{services: services}
}

type sentimentRequest struct {
	EmailContent string `json:"email_content"`
	Subject      string `json:"subject"`
	SenderEmail  string `json:"sender_email"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type websiteRequest struct {
	WebsiteURL string `json:"website_url"`
	URL        string `json:"url"`
}

// AnalyzeSentiment handles POST /api/analyze-sentiment.
func (h *AnalysisHandler) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	content := strings.TrimSpace(req.EmailContent)
	if content == "" {
		WriteError(w, http.StatusBadRequest, "Email content is required")
		return
	}

	result, err := h.services.Sentiment.Analyze(r.Context(), analysis.SentimentInput{
		Content: content,
		Subject: req.Subject,
		Sender:  req.SenderEmail,
	})
	if err != nil {
		WriteAnalysisError(r.Context(), w, err)
		return
	}
	writeAnalysis(w, result)
}

// ValidateEmail handles POST /api/validate-email.
func (h *AnalysisHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		WriteError(w, http.StatusBadRequest, "Email address is required")
		return
	}

	result, err := h.services.Email.Validate(r.Context(), email)
	if err != nil {
		WriteAnalysisError(r.Context(), w, err)
		return
	}
	writeAnalysis(w, result)
}

// MonitorWebsite handles POST /api/monitor-website. It accepts the URL
// under either "website_url" or "url"; older dashboard clients send the
// latter.
func (h *AnalysisHandler) MonitorWebsite(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	url := strings.TrimSpace(req.WebsiteURL)
	if url == "" {
		url = strings.TrimSpace(req.URL)
	}
	if url == "" {
		WriteError(w, http.StatusBadRequest, "Website URL is required")
		return
	}

	result, err := h.services.Website.Analyze(r.Context(), url)
	if err != nil {
		WriteAnalysisError(r.Context(), w, err)
		return
	}
	writeAnalysis(w, result)
}

// decodeBody parses the request body into v, writing the error response
// itself when parsing fails. An empty body decodes to the zero value so
// required-field validation produces the friendlier message.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	case IsBodyTooLargeError(err):
		WriteError(w, http.StatusRequestEntityTooLarge, "Request body exceeds the maximum allowed size")
		return false
	default:
		WriteError(w, http.StatusBadRequest, "Request body must be valid JSON")
		return false
	}
}

// writeAnalysis writes the success envelope shared by all three endpoints.
func writeAnalysis(w http.ResponseWriter, result *analysis.Result) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "completed",
		"analyzed_at":     isoTimestamp(),
		"provider":        result.Provider,
		"latency_seconds": result.Latency.Seconds(),
		"analysis":        result.Data,
	})
}

// isoTimestamp renders the current UTC time as an ISO-8601 string with
// microsecond precision and an explicit Z suffix.
func isoTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}
