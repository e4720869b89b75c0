package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ComponentLogger derives a logger for one component from the global logger
// configured by the logging package.
func ComponentLogger(app string) zerolog.Logger {
	return log.Logger.With().Str("app", app).Logger()
}
