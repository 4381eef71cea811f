package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS applies the API's allowed origin policy. An empty origins list falls back
// to the local dev frontends.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", CartSessionHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, idempotencyReplayHeader, "X-Next-Cursor"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
