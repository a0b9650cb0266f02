package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/controller"
	"github.com/unclebandit/blood-dispatch/internal/handler"
)

func newRouter(ctrl *controller.BloodRequestController, h *handler.BloodRequestHandler, log *zap.Logger, maxBody int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(controller.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(controller.BodyLimit(maxBody))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Blood request routes
	r.Route("/blood-requests", func(r chi.Router) {
		r.With(controller.RequireJSON).Post("/", ctrl.CreateCampaign)
		r.Get("/hospital/{hospitalID}", h.ListForHospital)
		r.Get("/donor/{donorID}", h.ListForDonor)
		r.Get("/{id}", h.GetRequest)
		r.Get("/{id}/notifications", h.ListNotifications)
		r.Patch("/{id}/cancel", ctrl.Cancel)
		r.Post("/{id}/respond", ctrl.Respond)
	})

	r.Get("/hospitals/{hospitalID}/blood-request-stats", h.HospitalStats)
	r.Get("/campaigns/{id}", h.GetCampaign)

	return r
}
