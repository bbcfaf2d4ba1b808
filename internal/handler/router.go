package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	meethandler "github.com/prj-capstone-2025-syu/i-go-meet/internal/handler/meet"
	middlewarePkg "github.com/prj-capstone-2025-syu/i-go-meet/internal/middleware"
	meetservice "github.com/prj-capstone-2025-syu/i-go-meet/internal/service/meet"
	"github.com/prj-capstone-2025-syu/i-go-meet/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(meetSvc *meetservice.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	meetHandler := meethandler.New(meetSvc)

	r.Route("/api", func(api chi.Router) {
		meetHandler.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
