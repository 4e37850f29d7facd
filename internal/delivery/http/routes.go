package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r chi.Router, httpHandler *HttpHandler, websocketHandler http.Handler, authHandler *AuthHandler, authMiddleware *AuthMiddleware) {
	r.Get("/", httpHandler.Health)
	r.Handle("/ws", websocketHandler)

	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)

	r.Get("/online", httpHandler.Online)
	r.Get("/online/cluster", httpHandler.ClusterOnline)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/me", authHandler.Me)
	})
}
