package ward

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/nursestation/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *echo.Echo) {
	t.Helper()
	svc, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
}

func TestHandler_ListPatients(t *testing.T) {
	h, svc, e := newTestHandler(t)
	addPatient(t, svc, "Juan Pérez", ConditionStable)
	addPatient(t, svc, "María García", ConditionCritical)

	req := httptest.NewRequest(http.MethodGet, "/?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || len(body.Data) != 1 || !body.HasMore {
		t.Errorf("unexpected page: %+v", body)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, svc, e := newTestHandler(t)
	p := addPatient(t, svc, "Juan Pérez", ConditionStable)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_Errors(t *testing.T) {
	h, _, e := newTestHandler(t)
	tests := []struct {
		id   string
		code int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{uuid.New().String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tt.id)

		err := h.GetPatient(c)
		httpErr, ok := err.(*echo.HTTPError)
		if !ok || httpErr.Code != tt.code {
			t.Errorf("id %q: expected %d, got %v", tt.id, tt.code, err)
		}
	}
}

func TestHandler_ListPatientNurseNotes(t *testing.T) {
	h, svc, e := newTestHandler(t)
	ctx := context.Background()
	p := addPatient(t, svc, "Juan Pérez", ConditionStable)
	other := addPatient(t, svc, "María García", ConditionCritical)
	svc.AddNurseNote(ctx, &NurseNote{PatientID: p.ID, Note: "Descansa bien", NurseName: "Ana"})
	svc.AddNurseNote(ctx, &NurseNote{PatientID: other.ID, Note: "Dolor leve", NurseName: "Ana"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.ListPatientNurseNotes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []NurseNote `json:"data"`
		Total int         `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 1 || body.Data[0].Note != "Descansa bien" {
		t.Errorf("unexpected notes: %+v", body)
	}
}

func TestHandler_RoutesRequireNurse(t *testing.T) {
	h, _, e := newTestHandler(t)
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ward/patients", nil)
	ctx := auth.WithClaims(req.Context(), &auth.Claims{Name: "Luis", Role: auth.RoleDoctor})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for doctor, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ward/patients", nil)
	ctx = auth.WithClaims(req.Context(), &auth.Claims{Name: "Ana", Role: auth.RoleNurse})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for nurse, got %d", rec.Code)
	}
}
