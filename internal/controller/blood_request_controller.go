package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/model"
)

// BloodRequestEngine is the write side of the dispatch engine.
type BloodRequestEngine interface {
	CreateCampaign(ctx context.Context, in model.CampaignInput) ([]model.BloodRequest, error)
	Cancel(ctx context.Context, id string) error
	Respond(ctx context.Context, id, donorID string) error
}

type BloodRequestController struct {
	Engine BloodRequestEngine
	Logger *zap.Logger
}

func NewBloodRequestController(engine BloodRequestEngine, logger *zap.Logger) *BloodRequestController {
	return &BloodRequestController{Engine: engine, Logger: logger}
}

// CreateCampaign handles POST /blood-requests.
func (c *BloodRequestController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body model.CampaignInput
	if !c.decode(w, r, &body) {
		return
	}

	records, err := c.Engine.CreateCampaign(r.Context(), body)
	if err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"count":   len(records),
		"data":    records,
	})
}

// Cancel handles PATCH /blood-requests/{id}/cancel.
func (c *BloodRequestController) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.Engine.Cancel(r.Context(), id); err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Blood request cancelled",
	})
}

// Respond handles POST /blood-requests/{id}/respond. The body is optional;
// an empty one, chunked or not, means an anonymous response.
func (c *BloodRequestController) Respond(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		DonorID string `json:"donor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return
	}

	if err := c.Engine.Respond(r.Context(), id, body.DonorID); err != nil {
		WriteError(w, r, c.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Response recorded",
	})
}

func (c *BloodRequestController) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	writeDecodeError(w, err)
	return false
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteProblem(w, http.StatusRequestEntityTooLarge, "request too large", err.Error(), nil)
	case errors.Is(err, io.EOF):
		WriteProblem(w, http.StatusBadRequest, "invalid body", "request body is empty", nil)
	default:
		WriteProblem(w, http.StatusBadRequest, "invalid body", err.Error(), nil)
	}
}
