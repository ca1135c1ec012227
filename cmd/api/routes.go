package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/middleware"
)

// Router assembles the full HTTP surface: public auth endpoints, the
// authenticated API and the WebSocket handshake.
func (s *Server) Router(limiter *middleware.LimiterStore, wsHandler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	// The WebSocket handshake authenticates via its userId query parameter,
	// not the bearer token, so it sits outside the auth middleware.
	r.Get("/ws", wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter))
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.jwt))

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile/{email}", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)
				r.Get("/settings", s.handleGetSettings)
				r.Put("/settings", s.handleUpdateSettings)
				r.Get("/search", s.handleSearchUsers)
				r.Post("/connect/{userId}", s.handleConnect)
				r.Get("/requests", s.handleConnectionRequests)
				r.Post("/accept/{userId}", s.handleAcceptConnection)
				r.Post("/reject/{userId}", s.handleRejectConnection)
				r.Get("/connections", s.handleConnections)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", s.handleListPosts)
				r.Post("/", s.handleCreatePost)
				r.Post("/{id}/like", s.handleLikePost)
				r.Post("/{id}/comment", s.handleCommentPost)
				r.Post("/{id}/comment/{commentId}/reply", s.handleReplyToComment)
				r.Post("/{id}/repost", s.handleRepost)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/conversations", s.handleGetConversations)
				r.Get("/{otherUserId}", s.handleGetMessages)
				r.Post("/send/{receiverId}", s.handleSendMessage)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Post("/read", s.handleMarkAllRead)
			})
		})
	})

	return r
}
