package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"studyroom/internal/handlers"
	"studyroom/internal/metrics"
)

func New(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	// The WebSocket stays outside the request timeout; everything else
	// gets one.
	r.Get("/ws", h.RoomWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/webrtc/config", h.GetWebRTCConfig)
		r.Get("/rooms/{roomID}", h.GetRoomStatus)
		r.Get("/users/{userID}/study-time", h.GetStudyTime)
		r.Post("/auth/token", h.IssueToken)
		r.Post("/auth/admin", h.IssueAdminToken)
	})

	return r
}
