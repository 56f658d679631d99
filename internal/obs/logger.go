// Package obs is SPIRAL's ambient observability layer: structured
// logging (zerolog, grounded on the teacher's root-level
// `github.com/rs/zerolog/log` usage in factory.go/src/internal/config.go),
// tracing spans (otel, grounded on the teacher's declared otel deps), and
// a websocket event stream generalizing the teacher's
// internal/infrastructure/websocket Hub from workflow-node lifecycle
// events to SPIRAL task/channel/effect-log lifecycle events.
package obs

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog.Logger at the given level
// ("debug", "info", "warn", "error"), writing structured JSON to stdout.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
