package middleware

import (
	"log/slog"
	"net/http"

	"github.com/wmrmrx/MAC0352-EP2/internal/middleware"
)

// Logging logs every API request under the api component
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "api")))
}
