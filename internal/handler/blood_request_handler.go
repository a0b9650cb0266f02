package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/controller"
	"github.com/unclebandit/blood-dispatch/internal/model"
	"github.com/unclebandit/blood-dispatch/internal/service"
)

// BloodRequestReader is the read side of the dispatch engine.
type BloodRequestReader interface {
	GetRequest(ctx context.Context, id string) (*model.BloodRequest, error)
	ListForHospital(ctx context.Context, hospitalID, status string) ([]model.BloodRequest, error)
	ListForDonor(ctx context.Context, donorID string) ([]model.BloodRequest, error)
	StatsForHospital(ctx context.Context, hospitalID string) (model.RequestStats, error)
	GetCampaignDetails(ctx context.Context, id string) (*service.CampaignDetails, error)
	NotificationsForRequest(ctx context.Context, id string) ([]model.OutboundMessage, error)
}

// BloodRequestHandler serves the read-only blood request endpoints.
type BloodRequestHandler struct {
	Service BloodRequestReader
	Logger  *zap.Logger
}

func NewBloodRequestHandler(svc BloodRequestReader, logger *zap.Logger) *BloodRequestHandler {
	return &BloodRequestHandler{Service: svc, Logger: logger}
}

// GetRequest handles GET /blood-requests/{id}
func (h *BloodRequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	br, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": br})
}

// ListForHospital handles GET /blood-requests/hospital/{hospitalID}?status=
func (h *BloodRequestHandler) ListForHospital(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListForHospital(r.Context(), chi.URLParam(r, "hospitalID"), r.URL.Query().Get("status"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(records), "data": records})
}

// ListForDonor handles GET /blood-requests/donor/{donorID}
func (h *BloodRequestHandler) ListForDonor(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListForDonor(r.Context(), chi.URLParam(r, "donorID"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(records), "data": records})
}

// HospitalStats handles GET /hospitals/{hospitalID}/blood-request-stats
func (h *BloodRequestHandler) HospitalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.StatsForHospital(r.Context(), chi.URLParam(r, "hospitalID"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

// ListNotifications handles GET /blood-requests/{id}/notifications
func (h *BloodRequestHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Service.NotificationsForRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(msgs), "data": msgs})
}

// GetCampaign handles GET /campaigns/{id}
func (h *BloodRequestHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.GetCampaignDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		controller.WriteError(w, r, h.Logger, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": details})
}
