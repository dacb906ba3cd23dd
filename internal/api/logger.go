package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/leadlens/leadlens/internal/config"
)

type ctxKey string

// RequestIDKey is the context key for request IDs.
const RequestIDKey ctxKey = "request_id"

// NewLogger creates a zerolog.Logger from logging configuration.
func NewLogger(cfg *config.LoggingConfig) (zerolog.Logger, error) {
	output, err := selectOutput(cfg.Output)
	if err != nil {
		return zerolog.Logger{}, err
	}

	level := cfg.ParseLevel()

	var writer io.Writer = output
	if shouldUsePretty(cfg, output) {
		writer = buildConsoleWriter(output)
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, nil
}

// selectOutput resolves the log destination. Empty or "stdout" maps to
// os.Stdout, "stderr" to os.Stderr, anything else is opened as a file.
func selectOutput(output string) (*os.File, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return file, nil
	}
}

// shouldUsePretty decides whether to wrap output in a console writer.
// The explicit Pretty flag wins, then the format string, then a TTY
// check on the destination.
func shouldUsePretty(cfg *config.LoggingConfig, output *os.File) bool {
	if cfg.Pretty {
		return true
	}
	switch strings.ToLower(cfg.Format) {
	case "pretty":
		return true
	case "json":
		return false
	default:
		return isatty.IsTerminal(output.Fd())
	}
}

func buildConsoleWriter(output *os.File) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             output,
		TimeFormat:      "15:04:05",
		FormatLevel:     formatLevel,
		FormatMessage:   formatMessage,
		FormatFieldName: formatFieldName,
	}
}

func formatLevel(i any) string {
	level, ok := i.(string)
	if !ok {
		return "???"
	}
	switch level {
	case "debug":
		return "\x1b[35mDBG\x1b[0m"
	case "info":
		return "\x1b[32mINF\x1b[0m"
	case "warn":
		return "\x1b[33mWRN\x1b[0m"
	case "error":
		return "\x1b[31mERR\x1b[0m"
	default:
		return strings.ToUpper(level)
	}
}

func formatMessage(i any) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("\x1b[1m-> %s\x1b[0m", i)
}

func formatFieldName(i any) string {
	return fmt.Sprintf("\x1b[2m%s=\x1b[0m", i)
}

// AddRequestID propagates the client's X-Request-ID header, minting a
// fresh UUID when the header is absent. The ID and a derived logger are
// both stored on the returned context.
func AddRequestID(ctx context.Context, r *http.Request, logger zerolog.Logger) (context.Context, string) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	reqLogger := logger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = reqLogger.WithContext(ctx)

	return ctx, requestID
}

// GetRequestID extracts the request ID from context, or "" if unset.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
