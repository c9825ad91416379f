package matching

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/sparkvibe-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/vibes").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Scoring
	api.HandleFunc("/matches/auto", handler.AutoMatch).Methods("POST")
	api.HandleFunc("/explore", handler.Explore).Methods("GET")
	api.HandleFunc("/compatibility/{userId}", handler.GetCompatibility).Methods("GET")

	// Matches
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")
	api.HandleFunc("/matches/{id}/chat", handler.StartChat).Methods("POST")
	api.HandleFunc("/matches/{id}/unmatch", handler.Unmatch).Methods("POST")
}
