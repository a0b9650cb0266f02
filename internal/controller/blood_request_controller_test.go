package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/controller"
	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/model"
)

// --- Mock engine ---

type mockEngine struct {
	input      model.CampaignInput
	records    []model.BloodRequest
	createErr  error
	cancelled  string
	cancelErr  error
	respondID  string
	respondBy  string
	respondErr error
}

func (m *mockEngine) CreateCampaign(ctx context.Context, in model.CampaignInput) ([]model.BloodRequest, error) {
	m.input = in
	return m.records, m.createErr
}

func (m *mockEngine) Cancel(ctx context.Context, id string) error {
	m.cancelled = id
	return m.cancelErr
}

func (m *mockEngine) Respond(ctx context.Context, id, donorID string) error {
	m.respondID, m.respondBy = id, donorID
	return m.respondErr
}

func newRouter(engine *mockEngine) http.Handler {
	ctrl := controller.NewBloodRequestController(engine, zap.NewNop())
	r := chi.NewRouter()
	r.Use(controller.BodyLimit(1024))
	r.With(controller.RequireJSON).Post("/blood-requests", ctrl.CreateCampaign)
	r.Patch("/blood-requests/{id}/cancel", ctrl.Cancel)
	r.Post("/blood-requests/{id}/respond", ctrl.Respond)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func problem(t *testing.T, w *httptest.ResponseRecorder) controller.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var p controller.Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	return p
}

// --- Tests ---

func TestCreateCampaign_Created(t *testing.T) {
	engine := &mockEngine{records: []model.BloodRequest{
		{ID: "r1", DonorID: "d1", BloodType: model.ONegative, Status: model.StatusActive},
	}}
	w := do(t, newRouter(engine), "POST", "/blood-requests",
		`{"hospital_id":"h1","blood_type":"O-","quantity":2,"radius":10}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.CampaignInput{HospitalID: "h1", BloodType: "O-", Quantity: 2, RadiusKm: 10}, engine.input)

	var resp struct {
		Count int                  `json:"count"`
		Data  []model.BloodRequest `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "r1", resp.Data[0].ID)
}

func TestCreateCampaign_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid argument", appErrors.NewInvalidArgument("blood_type", "unknown blood type X+"), http.StatusBadRequest},
		{"hospital not found", appErrors.NewNotFound("hospital", "h9"), http.StatusNotFound},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, newRouter(&mockEngine{createErr: tc.err}), "POST", "/blood-requests",
				`{"hospital_id":"h1","blood_type":"X+","quantity":1,"radius":5}`)
			assert.Equal(t, tc.code, w.Code)
			p := problem(t, w)
			assert.Equal(t, tc.code, p.Status)
			assert.NotContains(t, p.Detail, "connection refused")
		})
	}
}

func TestCreateCampaign_RejectsNonJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/blood-requests", strings.NewReader("hospital_id=h1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newRouter(&mockEngine{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestCreateCampaign_MalformedAndOversizedBodies(t *testing.T) {
	w := do(t, newRouter(&mockEngine{}), "POST", "/blood-requests", `{"hospital_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := `{"hospital_id":"` + strings.Repeat("h", 2048) + `"}`
	w = do(t, newRouter(&mockEngine{}), "POST", "/blood-requests", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCancel(t *testing.T) {
	engine := &mockEngine{}
	w := do(t, newRouter(engine), "PATCH", "/blood-requests/r1/cancel", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", engine.cancelled)
}

func TestCancel_TerminalIsConflict(t *testing.T) {
	engine := &mockEngine{cancelErr: appErrors.NewInvalidStateTransition("r1", "FULFILLED", "cancel")}
	w := do(t, newRouter(engine), "PATCH", "/blood-requests/r1/cancel", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot cancel a request with status FULFILLED", problem(t, w).Detail)
}

func TestRespond_WithAndWithoutBody(t *testing.T) {
	engine := &mockEngine{}
	w := do(t, newRouter(engine), "POST", "/blood-requests/r1/respond", `{"donor_id":"d1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", engine.respondID)
	assert.Equal(t, "d1", engine.respondBy)

	engine = &mockEngine{}
	w = do(t, newRouter(engine), "POST", "/blood-requests/r2/respond", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r2", engine.respondID)
	assert.Empty(t, engine.respondBy)
}

func TestRespond_ChunkedEmptyBody(t *testing.T) {
	engine := &mockEngine{}
	req := httptest.NewRequest("POST", "/blood-requests/r3/respond", io.NopCloser(strings.NewReader("")))
	req.TransferEncoding = []string{"chunked"}
	require.Equal(t, int64(-1), req.ContentLength)
	w := httptest.NewRecorder()

	newRouter(engine).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r3", engine.respondID)
	assert.Empty(t, engine.respondBy)
}

func TestRespond_MalformedBody(t *testing.T) {
	engine := &mockEngine{}
	w := do(t, newRouter(engine), "POST", "/blood-requests/r1/respond", `{"donor_id":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, engine.respondID)
}

func TestRespond_NotAssigned(t *testing.T) {
	engine := &mockEngine{respondErr: appErrors.NewNotFoundDetail("blood request", "r1", "blood request not found or not assigned to you")}
	w := do(t, newRouter(engine), "POST", "/blood-requests/r1/respond", `{"donor_id":"d9"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "blood request not found or not assigned to you", problem(t, w).Detail)
}
