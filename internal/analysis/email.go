package analysis

import (
	"context"
	"errors"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/leadlens/leadlens/internal/cache"
	"github.com/leadlens/leadlens/internal/providers"
)

const (
	emailTemperature = 0.05
	emailMaxTokens   = 700

	// resolverTimeout bounds each DNS lookup during diagnostics.
	resolverTimeout = 3 * time.Second
)

const emailSystemPrompt = "You are an email deliverability expert. " +
	"Use diagnostics to assess risk. Return strict JSON."

const emailPromptHeader = "Assess one email address for deliverability and security risk. Use diagnostics JSON. " +
	"Return JSON with keys: is_deliverable (bool), risk_level (low|medium|high|critical), " +
	"risk_score (0-100), confidence (0-1 float), summary (string), issues (array of strings), " +
	"recommended_actions (array of strings). Only rely on provided diagnostics; call out uncertainties.\n"

// EmailService combines deterministic deliverability diagnostics with an
// AI risk synthesis pass.
type EmailService struct {
	router    Completer
	responses *cache.ResponseCache

	// DNS seams, overridden in tests.
	lookupMX   func(ctx context.Context, domain string) ([]*net.MX, error)
	lookupHost func(ctx context.Context, host string) ([]string, error)
}

// NewEmailService builds an email validation service using the system
// DNS resolver for diagnostics.
func NewEmailService(completer Completer, responses *cache.ResponseCache) *EmailService {
	resolver := &net.Resolver{}
	return &EmailService{
		router:     completer,
		responses:  responses,
		lookupMX:   resolver.LookupMX,
		lookupHost: resolver.LookupHost,
	}
}

// Validate assesses one address. Diagnostics are collected even for
// invalid syntax so the model can explain the failure.
func (s *EmailService) Validate(ctx context.Context, email string) (*Result, error) {
	diagnostics := s.collectDiagnostics(ctx, email)
	payload := map[string]any{"email": email, "diagnostics": diagnostics}

	if hit, ok := s.responses.Lookup(ctx, TypeEmailValidation, payload).Get(); ok {
		return &Result{Data: hit, Provider: CacheProvider}, nil
	}

	req := providers.NewRequest(emailPromptHeader + "Diagnostics:\n" + prettyJSON(diagnostics) + "\n")
	req.System = emailSystemPrompt
	req.Temperature = emailTemperature
	req.MaxTokens = emailMaxTokens

	routed, err := s.router.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	data := formatEmailValidation(routed.Data, diagnostics)
	s.responses.Store(ctx, TypeEmailValidation, payload, data)

	return &Result{Data: data, Provider: routed.Provider, Latency: routed.Latency}, nil
}

// collectDiagnostics gathers syntax, MX, and resolution facts. DNS
// failures land in the map instead of aborting: the model is expected to
// reason about them.
func (s *EmailService) collectDiagnostics(ctx context.Context, email string) map[string]any {
	diagnostics := map[string]any{
		"email":               email,
		"syntax_valid":        false,
		"normalized":          nil,
		"domain":              nil,
		"mx_records":          []string{},
		"mx_lookup_error":     nil,
		"domain_resolves":     false,
		"resolver_latency_ms": nil,
	}

	normalized, domain, err := normalizeAddress(email)
	if err != nil {
		diagnostics["validation_error"] = err.Error()
		return diagnostics
	}
	diagnostics["syntax_valid"] = true
	diagnostics["normalized"] = normalized
	diagnostics["domain"] = domain

	mxCtx, cancel := context.WithTimeout(ctx, resolverTimeout)
	defer cancel()

	start := time.Now()
	records, err := s.lookupMX(mxCtx, domain)
	if err != nil {
		diagnostics["mx_lookup_error"] = err.Error()
	} else {
		diagnostics["resolver_latency_ms"] = int(time.Since(start).Milliseconds())
		diagnostics["mx_records"] = lo.Map(records, func(mx *net.MX, _ int) string {
			return strings.TrimSuffix(mx.Host, ".")
		})
	}

	hostCtx, cancel := context.WithTimeout(ctx, resolverTimeout)
	defer cancel()

	if _, err := s.lookupHost(hostCtx, domain); err != nil {
		diagnostics["network_errors"] = []string{err.Error()}
	} else {
		diagnostics["domain_resolves"] = true
	}

	return diagnostics
}

// normalizeAddress parses a bare address and lowercases its domain.
// Display-name forms are rejected: the input must be only an address.
func normalizeAddress(email string) (normalized, domain string, err error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", "", err
	}
	if addr.Name != "" {
		return "", "", errors.New("address must not carry a display name")
	}
	at := strings.LastIndex(addr.Address, "@")
	local, host := addr.Address[:at], strings.ToLower(addr.Address[at+1:])
	return local + "@" + host, host, nil
}

// formatEmailValidation flattens the model verdict into the shape the
// frontend expects, carrying the raw diagnostics as telemetry.
func formatEmailValidation(ai, diagnostics map[string]any) map[string]any {
	riskLevel := stringOr(ai, "risk_level", "low")
	return map[string]any{
		"is_deliverable":  pick(ai, "is_deliverable", true),
		"risk_level":      riskLevel,
		"risk_score":      pick(ai, "risk_score", 15),
		"confidence":      pick(ai, "confidence", 0.8),
		"threat_level":    strings.ToUpper(riskLevel),
		"status":          "completed",
		"findings":        pick(ai, "summary", "Analysis completed by AI security agents"),
		"recommendations": pick(ai, "recommended_actions", []string{"Email security analysis completed"}),
		"issues":          pick(ai, "issues", []string{}),
		"telemetry":       diagnostics,
		"raw_analysis":    ai,
	}
}
