package controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"health_track_backend/internal/config"
	"health_track_backend/internal/middleware"
	"health_track_backend/internal/model"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitID = "3f1c7f3e-8d7e-4b8e-9a51-0c7d1d2f9b10"

type memVisits struct {
	rec *model.VisitRecord
}

func (m *memVisits) Create(context.Context, *model.VisitRecord) error { return nil }

func (m *memVisits) FindByID(_ context.Context, id string) (*model.VisitRecord, error) {
	if m.rec == nil || m.rec.ID != id {
		return nil, util.ErrNotFound
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memVisits) ListByUser(context.Context, uint, uint) ([]model.VisitRecord, error) {
	return []model.VisitRecord{*m.rec}, nil
}

func (m *memVisits) SaveStep(context.Context, *workflow.StepWrite) error { return nil }

func (m *memVisits) Delete(context.Context, string) error { return nil }

func newVisitRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := &model.VisitRecord{
		UserID:      7,
		ProgramID:   1,
		CurrentStep: model.StepCompleted,
		FullName:    "Jane Doe",
		DateOfBirth: &dob,
		VisitDate:   &day,
		Symptoms: []model.Symptom{
			{SymptomType: model.SymptomFatigue, Present: true, Frequency: model.FrequencyDaily, Intensity: 4},
		},
	}
	rec.ID = visitID
	visits := &memVisits{rec: rec}

	reports := service.NewReportService(visits, nil, memCatalog{}, nil, nil, nil, &config.ReportConfig{})
	reports.Now = func() time.Time { return day.Add(9 * time.Hour) }
	c := NewVisitController(service.NewVisitService(visits, nil), reports)

	auth := staticAuth{
		"patient-token": {UserID: 7, Role: model.Patient, SessionID: "sid-1"},
		"other-token":   {UserID: 8, Role: model.Patient, SessionID: "sid-2"},
	}
	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(auth))
	api.PUT("/visits/:id/steps/:step", c.SubmitStep)
	api.GET("/visits/:id/report", c.Report)
	return r
}

func TestVisitReportDownload(t *testing.T) {
	r := newVisitRouter(t)

	w := do(r, http.MethodGet, "/api/visits/"+visitID+"/report", "patient-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, util.MimePDF, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="long-covid-doctor-visit-2025-04-10.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestVisitReportOtherUser(t *testing.T) {
	r := newVisitRouter(t)
	w := do(r, http.MethodGet, "/api/visits/"+visitID+"/report", "other-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVisitReportUnknownRecord(t *testing.T) {
	r := newVisitRouter(t)
	w := do(r, http.MethodGet, "/api/visits/nope/report", "patient-token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitStepRejectsBadInput(t *testing.T) {
	r := newVisitRouter(t)

	put := func(step, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/visits/"+visitID+"/steps/"+step, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer patient-token")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := put("medications", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"step"`)

	w = put("personal_info", `{"fullName": "Jane", "shoeSize": 38}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"answers"`)
}
