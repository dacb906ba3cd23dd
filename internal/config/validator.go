package config

import (
	"fmt"
	"net"
	"strings"
)

// Provider type constants.
const (
	ProviderGroq    = "groq"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderBedrock = "bedrock"
)

// Valid provider types.
var validProviderTypes = map[string]bool{
	ProviderGroq:    true,
	ProviderOpenAI:  true,
	ProviderOllama:  true,
	ProviderBedrock: true,
}

// Valid quota strategies.
var validQuotaStrategies = map[string]bool{
	"":               true, // Empty defaults to sliding_window
	"sliding_window": true,
	"token_bucket":   true,
}

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to json
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// It validates all required fields, valid values, and cross-field constraints.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateServer(c, errs)
	validateProviders(c, errs)
	validateQuota(c, errs)
	validateRouting(c, errs)
	validateLogging(c, errs)

	return errs.ToError()
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	// Server.Listen is required
	if c.Server.Listen == "" {
		errs.Add("server.listen is required")
	} else {
		// Validate listen address format (host:port)
		validateListenAddress(c.Server.Listen, errs)
	}

	// Validate timeout if set
	if c.Server.TimeoutMS < 0 {
		errs.Add("server.timeout_ms must be >= 0")
	}

	// Validate max_concurrent if set
	if c.Server.MaxConcurrent < 0 {
		errs.Add("server.max_concurrent must be >= 0")
	}

	// Validate max_body_bytes if set
	if c.Server.MaxBodyBytes < 0 {
		errs.Add("server.max_body_bytes must be >= 0")
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Addf("server.listen must be in host:port format (got %q)", addr)
		return
	}

	// Host can be empty (listen on all interfaces) or a valid IP/hostname
	if host != "" {
		// Try to parse as IP
		if ip := net.ParseIP(host); ip == nil {
			// Not an IP, treat as hostname - basic validation
			if strings.ContainsAny(host, " \t\n") {
				errs.Add("server.listen host contains invalid characters")
			}
		}
	}

	// Port must be a number (SplitHostPort doesn't validate this)
	if port == "" {
		errs.Add("server.listen port is required")
	}
}

// validateProviders validates the providers configuration section.
func validateProviders(c *Config, errs *ValidationError) {
	if len(c.Providers) == 0 {
		// No providers is valid - FromEnv discovery or placeholder config
		return
	}

	seenNames := make(map[string]bool)

	for i := range c.Providers {
		validateProvider(&c.Providers[i], i, seenNames, errs)
	}
}

// validateProvider validates a single provider configuration.
func validateProvider(p *ProviderConfig, index int, seenNames map[string]bool, errs *ValidationError) {
	prefix := func(field string) string {
		if p.Name != "" {
			return fmt.Sprintf("provider[%s].%s", p.Name, field)
		}
		return fmt.Sprintf("providers[%d].%s", index, field)
	}

	// Name is required
	if p.Name == "" {
		errs.Addf("providers[%d].name is required", index)
	} else {
		// Check for duplicate names
		if seenNames[p.Name] {
			errs.Addf("duplicate provider name: %s", p.Name)
		}
		seenNames[p.Name] = true
	}

	// Type is required
	if p.Type == "" {
		errs.Addf("%s is required", prefix("type"))
	} else if !validProviderTypes[p.Type] {
		errs.Addf("%s is invalid (got %q, valid: groq, openai, ollama, bedrock)",
			prefix("type"), p.Type)
	}

	// API key is required for hosted key-authenticated vendors
	if requiresAPIKey(p.Type) && p.APIKey == "" {
		errs.Addf("%s is required for %s provider", prefix("api_key"), p.Type)
	}

	// Priority must be non-negative
	if p.Priority < 0 {
		errs.Addf("%s must be >= 0 (got %d)", prefix("priority"), p.Priority)
	}

	// Validate cloud provider fields
	if p.Type == ProviderBedrock && p.AWSRegion == "" {
		errs.Addf("%s is required for bedrock provider", prefix("aws_region"))
	}
}

// validateQuota validates the quota configuration section.
func validateQuota(c *Config, errs *ValidationError) {
	// Caps must be non-negative (zero means default)
	if c.Quota.CallsPerMinute < 0 {
		errs.Add("quota.calls_per_minute must be >= 0")
	}
	if c.Quota.CallsPerDay < 0 {
		errs.Add("quota.calls_per_day must be >= 0")
	}

	// Strategy must be valid if set
	if !validQuotaStrategies[c.Quota.Strategy] {
		errs.Addf("quota.strategy is invalid (got %q, valid: sliding_window, token_bucket)",
			c.Quota.Strategy)
	}
}

// validateRouting validates the routing configuration section.
func validateRouting(c *Config, errs *ValidationError) {
	// Backoff must be non-negative
	if c.Routing.RetryBackoffMS < 0 {
		errs.Add("routing.retry_backoff_ms must be >= 0")
	}

	// Request timeout must be non-negative
	if c.Routing.RequestTimeoutMS < 0 {
		errs.Add("routing.request_timeout_ms must be >= 0")
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	// Level must be valid if set
	if !validLogLevels[c.Logging.Level] {
		errs.Addf("logging.level is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	// Format must be valid if set
	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}
