package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger in production and a human-readable
// text logger everywhere else. Every record carries the service name so
// api and worker logs can be told apart when shipped together.
func NewLogger(env, service string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" || env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler).With(slog.String("service", service))
}
