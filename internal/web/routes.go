package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-locker/internal/web/handlers"
	"github.com/kozaktomas/face-locker/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	usersHandler := handlers.NewUsersHandler(s.store, s.recognizer)
	trainHandler := handlers.NewTrainHandler(s.recognizer)
	recognizeHandler := handlers.NewRecognizeHandler(s.recognizer)
	modelsHandler := handlers.NewModelsHandler(s.recognizer)

	// Health check (no auth required)
	s.router.Get("/health", handlers.HealthCheck)

	// Read endpoints
	s.router.Get("/users", usersHandler.List)
	s.router.Get("/models", modelsHandler.List)
	s.router.Post("/recognize", recognizeHandler.Recognize)

	// Mutating endpoints require the admin token
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.Auth.AdminToken))

		r.Post("/add-user/{username}", usersHandler.Add)
		r.Post("/train", trainHandler.Train)
		r.Delete("/users/{username}", usersHandler.Delete)
	})
}
