package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/fleet-trips/internal/auth"
	"github.com/nurpe/fleet-trips/internal/classifier"
	"github.com/nurpe/fleet-trips/internal/config"
	"github.com/nurpe/fleet-trips/internal/excel"
	"github.com/nurpe/fleet-trips/internal/http/middleware"
	"github.com/nurpe/fleet-trips/internal/model"
	"github.com/nurpe/fleet-trips/internal/pdf"
	"github.com/nurpe/fleet-trips/internal/repository"
	"github.com/nurpe/fleet-trips/internal/service"
)

const testSecret = "test-secret"

type testServer struct {
	router  *gin.Engine
	parser  *auth.Parser
	company model.Principal
	driver  model.Principal
	label   atomic.Value
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{}
	ts.label.Store("AGGRESSIVE")
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conduct":"` + ts.label.Load().(string) + `"}`))
	}))
	t.Cleanup(predictor.Close)

	cfg := &config.Config{
		Environment: "test",
		HTTP:        config.HTTPConfig{AllowedOrigins: []string{"*"}},
		Classifier:  config.ClassifierConfig{BaseURL: predictor.URL, Timeout: time.Second},
	}
	log := zerolog.Nop()

	store := repository.NewMemory()
	trips := service.NewTripService(store, store, classifier.New(cfg.Classifier, log), nil, excel.NewGenerator(), pdf.NewGenerator(), cfg, log)
	cities := service.NewCityService(store, nil)

	ts.parser = auth.NewParser(testSecret)
	ts.router = NewRouter(NewHandler(trips, cities, log), middleware.Auth(ts.parser), cfg, log)

	companyID := uuid.New()
	ts.company = principalWithRole(companyID, "company")
	ts.driver = principalWithRole(companyID, "driver")
	return ts
}

func principalWithRole(companyID uuid.UUID, role string) model.Principal {
	return model.Principal{UserID: uuid.New(), CompanyID: companyID, Role: role}
}

func (ts *testServer) do(t *testing.T, principal *model.Principal, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		token, err := ts.parser.Issue(*principal, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createCity(t *testing.T, name string) model.City {
	t.Helper()
	rec := ts.do(t, &ts.company, http.MethodPost, "/cities", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var city model.City
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &city))
	return city
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

func TestHealthzAndMetricsArePublic(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, nil, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, nil, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, nil, http.MethodGet, "/trips", nil).Code)
}

func TestTripLifecycle(t *testing.T) {
	ts := newTestServer(t)
	paris := ts.createCity(t, "Paris")
	lyon := ts.createCity(t, "Lyon")

	rec := ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"origin_id":      paris.ID,
		"destination_id": lyon.ID,
		"start_date":     "2024-03-12T08:00:00Z",
		"input_conduct":  gin.H{"speed": []int{90, 130}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trip := decode[model.Trip](t, rec)
	assert.Equal(t, model.ConductAggressive, trip.Conduct)
	assert.Equal(t, model.TripStatusCreated, trip.Status)
	assert.Equal(t, ts.driver.UserID, trip.UserID)

	ts.label.Store("NORMAL")
	rec = ts.do(t, &ts.driver, http.MethodPatch, "/trips/"+trip.ID.String(), gin.H{
		"status":        "in_progress",
		"input_conduct": gin.H{"speed": []int{50}},
		"details": []gin.H{
			{"occurred_at": "2024-03-12T09:00:00Z", "type": "SPEEDING", "responded": true},
			{"occurred_at": "2024-03-12T09:30:00Z", "type": "FATIGUE"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Trip](t, rec)
	assert.Equal(t, model.ConductNormal, updated.Conduct)
	assert.Equal(t, model.TripStatusInProgress, updated.Status)
	assert.Equal(t, paris.ID, updated.OriginCityID)

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/search?destination=PARIS", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	found := decode[[]model.DecoratedTrip](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Paris - Lyon", found[0].Route())
	assert.Equal(t, 2, found[0].TotalAlerts)
	assert.Equal(t, 1, found[0].RespondedAlerts)

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Paris - Lyon"}, decode[[]string](t, rec))

	rec = ts.do(t, &ts.driver, http.MethodGet, "/trips/count/by-user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/count/by-user?driver="+ts.driver.UserID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/count/by-user", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/count/current-week", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	week := decode[model.WeeklyCount](t, rec)
	assert.Equal(t, time.Monday, week.From.Weekday())

	rec = ts.do(t, &ts.driver, http.MethodDelete, "/trips/"+trip.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, &ts.company, http.MethodDelete, "/trips/"+trip.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/"+trip.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTripRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	paris := ts.createCity(t, "Paris")

	rec := ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"origin_id":      paris.ID,
		"destination_id": paris.ID,
		"start_date":     "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"origin_id":      paris.ID,
		"destination_id": uuid.New(),
		"start_date":     "2024-03-12",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"user_id":        uuid.New(),
		"origin_id":      paris.ID,
		"destination_id": paris.ID,
		"start_date":     "2024-03-12",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSearchRejectsBadFilters(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, &ts.company, http.MethodGet, "/trips/search?dateFrom=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, &ts.company, http.MethodGet, "/trips/search?status=done", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, &ts.company, http.MethodGet, "/trips/search?dateFrom=2024-03-10&dateTo=2024-03-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, &ts.company, http.MethodGet, "/trips/search?driver=abc", nil).Code)

	rec := ts.do(t, &ts.company, http.MethodGet, "/trips/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExportTrips(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, &ts.company, http.MethodGet, "/trips/export?format=pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/export?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCityEndpoints(t *testing.T) {
	ts := newTestServer(t)
	city := ts.createCity(t, "Paris")

	rec := ts.do(t, &ts.company, http.MethodPatch, "/cities/"+city.ID.String(), gin.H{"name": "Lyon"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lyon", decode[model.City](t, rec).Name)

	rec = ts.do(t, &ts.company, http.MethodGet, "/cities/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = ts.do(t, &ts.driver, http.MethodPost, "/cities", gin.H{"name": "Nice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, &ts.company, http.MethodGet, "/cities/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, &ts.company, http.MethodDelete, "/cities/"+city.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateTripRejectsMalformedFields(t *testing.T) {
	ts := newTestServer(t)
	paris := ts.createCity(t, "Paris")

	rec := ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"origin_id":      paris.ID,
		"destination_id": paris.ID,
		"start_date":     "2024-03-12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trip := decode[model.Trip](t, rec)

	rec = ts.do(t, &ts.driver, http.MethodPatch, "/trips/"+trip.ID.String(), gin.H{"end_date": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid end_date")
}

func TestSearchDateOnlyUpperBoundCoversWholeDay(t *testing.T) {
	ts := newTestServer(t)
	paris := ts.createCity(t, "Paris")
	lyon := ts.createCity(t, "Lyon")

	rec := ts.do(t, &ts.driver, http.MethodPost, "/trips", gin.H{
		"origin_id":      paris.ID,
		"destination_id": lyon.ID,
		"start_date":     "2024-03-13T18:30:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/search?dateFrom=2024-03-13&dateTo=2024-03-13", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.DecoratedTrip](t, rec), 1)

	rec = ts.do(t, &ts.company, http.MethodGet, "/trips/search?dateTo=2024-03-12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.DecoratedTrip](t, rec))
}
