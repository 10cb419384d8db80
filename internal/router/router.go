package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"dermaview-backend/internal/handlers"
	"dermaview-backend/internal/middleware"
	"dermaview-backend/internal/websocket"
)

// New wires the HTTP surface. jwtAuth and limiter are optional.
func New(
	chatHandler *handlers.ChatHandler,
	ttsHandler *handlers.TTSHandler,
	chatStream *websocket.ChatStream,
	jwtAuth *middleware.JWTAuth,
	limiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Group(func(r chi.Router) {
			if jwtAuth != nil {
				r.Use(jwtAuth.Middleware)
			}
			r.Post("/analysis-chat", chatHandler.AnalysisChat)
			r.Post("/tts", ttsHandler.Synthesize)
		})

		r.Group(func(r chi.Router) {
			if jwtAuth != nil {
				r.Use(jwtAuth.WebSocketMiddleware)
			}
			r.Get("/analysis-chat/ws", chatStream.HandleWebSocket)
		})
	})

	return r
}
