package matching

import (
	"github.com/gorilla/mux"
	"github.com/imadgeboyega/kiekky-weekly/internal/auth"
)

// RegisterRoutes mounts the matching API. A nil authMiddleware leaves the routes open.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching/prompts/{promptKey}").Subrouter()

	admin := api.NewRoute().Subrouter()
	users := api.PathPrefix("/users/{userId}").Subrouter()
	if authMiddleware != nil {
		admin.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)
		users.Use(authMiddleware.Authenticate, authMiddleware.RequireSelfOrAdmin("userId"))
	}

	// Generation
	admin.HandleFunc("/generate", handler.Generate).Methods("POST")
	admin.HandleFunc("/validate", handler.Validate).Methods("GET")
	admin.HandleFunc("/stats", handler.GetStats).Methods("GET")
	admin.HandleFunc("/manual", handler.AddManualMatch).Methods("POST")

	// Records
	users.HandleFunc("", handler.GetMatchRecord).Methods("GET")
	users.HandleFunc("/reveal", handler.Reveal).Methods("POST")
}
