package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/service"
	"github.com/langchou/garage/internal/store"
	"github.com/langchou/garage/pkg/ws"
)

type nopPersister struct{}

func (nopPersister) Load(ctx context.Context) (*models.Document, bool) { return nil, false }
func (nopPersister) Save(doc *models.Document)                         {}
func (nopPersister) Flush(ctx context.Context) error                   { return nil }

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	hub    *ws.Hub
}

func newTestEnv(t *testing.T, hydrate, allowReset bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	st := store.New(nopPersister{}, logger)
	if hydrate {
		require.NoError(t, st.Hydrate(context.Background()))
	}

	hub := ws.NewHub(logger)
	now := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)
	insights := service.NewInsights(st).WithClock(func() time.Time { return now })

	router := gin.New()
	NewHandler(logger, st, insights, hub, allowReset).RegisterRoutes(router)
	return &testEnv{router: router, store: st, hub: hub}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func TestListCars(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodGet, "/api/cars", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cars []models.Vehicle
	decodeData(t, w, &cars)
	require.Len(t, cars, 2)
	assert.Equal(t, "1", cars[0].ID)
	assert.Equal(t, "4", cars[1].ID)
}

func TestGetCar(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodGet, "/api/cars/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	var car models.Vehicle
	decodeData(t, w, &car)
	assert.Equal(t, "Saab", car.Make)

	w = env.do(http.MethodGet, "/api/cars/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCar(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodPost, "/api/cars", `{"make":"Volvo","model":"240","year":1990,"fuel":"petrol"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var car models.Vehicle
	decodeData(t, w, &car)
	require.NotEmpty(t, car.ID, "id is generated when omitted")

	stored, ok := env.store.VehicleByID(car.ID)
	require.True(t, ok)
	assert.Equal(t, "Volvo", stored.Make)
	assert.Len(t, env.store.Vehicles(), 3)
}

func TestCreateCar_Errors(t *testing.T) {
	env := newTestEnv(t, true, false)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"make":`, http.StatusBadRequest},
		{"missing make", `{"model":"240","year":1990,"fuel":"petrol"}`, http.StatusBadRequest},
		{"unknown fuel", `{"make":"Volvo","model":"240","year":1990,"fuel":"steam"}`, http.StatusBadRequest},
		{"duplicate id", `{"id":"1","make":"Volvo","model":"240","year":1990,"fuel":"petrol"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/cars", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
	assert.Len(t, env.store.Vehicles(), 2)
}

func TestUpdateCar(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodPatch, "/api/cars/1", `{"currentMileage":250000,"color":"silver"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var car models.Vehicle
	decodeData(t, w, &car)
	require.NotNil(t, car.CurrentMileage)
	assert.Equal(t, 250000.0, *car.CurrentMileage)
	assert.Equal(t, "Bmw", car.Make)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPatch, "/api/cars/1", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPatch, "/api/cars/1", `{"year":1700}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPatch, "/api/cars/missing", `{"color":"red"}`).Code)
}

func TestDeleteCar(t *testing.T) {
	env := newTestEnv(t, true, false)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/cars/4", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/cars/4", "").Code)
	assert.Len(t, env.store.Vehicles(), 1)
}

func TestClearCars(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, true, false)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/cars", "").Code)
		assert.Len(t, env.store.Vehicles(), 2)
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, true, true)
		assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/cars", "").Code)
		assert.Empty(t, env.store.Vehicles())
	})
}

func TestRecords_Lifecycle(t *testing.T) {
	env := newTestEnv(t, true, false)

	body := `{"provider":"Allianz","startDate":"2025-01-01","expiryDate":"2026-01-01","cost":320}`
	w := env.do(http.MethodPost, "/api/cars/1/insurance", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var rec models.InsuranceRecord
	decodeData(t, w, &rec)
	require.NotEmpty(t, rec.ID)

	car, _ := env.store.VehicleByID("1")
	require.Len(t, car.InsuranceHistory, 1)

	update := `{"provider":"Allianz","startDate":"2025-01-01","expiryDate":"2026-01-01","cost":350}`
	w = env.do(http.MethodPut, "/api/cars/1/insurance/"+rec.ID, update)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &rec)
	assert.Equal(t, 350.0, rec.Cost)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, "/api/cars/1/insurance/nope", update).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/cars/1/insurance/"+rec.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/cars/1/insurance/"+rec.ID, "").Code)
}

func TestRecords_AllKinds(t *testing.T) {
	env := newTestEnv(t, true, false)

	tests := []struct {
		path string
		body string
	}{
		{"/api/cars/4/inspections", `{"type":"technical","date":"2025-05-01","expiryDate":"2026-05-01","result":"pass","cost":60}`},
		{"/api/cars/4/running-costs", `{"type":"fuel","date":"2025-06-01","amount":80}`},
		{"/api/cars/4/maintenance", `{"date":"2025-07-01","type":"scheduled","description":"Oil change","mileage":182000,"cost":120}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/cars/missing/running-costs", tests[1].body).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/cars/4/running-costs", `{"type":"fuel","date":"June","amount":80}`).Code)
}

func TestRecords_DuplicateID(t *testing.T) {
	env := newTestEnv(t, true, false)

	body := `{"id":"fuel-1","type":"fuel","date":"2025-06-01","amount":80}`
	assert.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/cars/1/running-costs", body).Code)
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/cars/1/running-costs", body).Code)
}

func TestInsights(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodGet, "/api/cars/4/cost-breakdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown service.CostBreakdown
	decodeData(t, w, &breakdown)
	assert.Greater(t, breakdown.Total, 0.0)

	w = env.do(http.MethodGet, "/api/cars/4/running-costs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var costs []models.RunningCostRecord
	decodeData(t, w, &costs)
	for i := 1; i < len(costs); i++ {
		assert.GreaterOrEqual(t, costs[i-1].Date, costs[i].Date)
	}

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/cars/4/overview", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/cars/missing/overview", "").Code)
}

func TestNotReady(t *testing.T) {
	env := newTestEnv(t, false, true)

	w := env.do(http.MethodPost, "/api/cars", `{"make":"Volvo","model":"240","year":1990,"fuel":"petrol"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodDelete, "/api/cars", "").Code)

	w = env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"uninitialized"`)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 2.0, body["cars"])
	assert.Equal(t, 0.0, body["ws_clients"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, true, false)
	env.do(http.MethodGet, "/api/cars", "")

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "garage_http_requests_total")
}

func TestWebSocket_InitMessage(t *testing.T) {
	env := newTestEnv(t, true, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vehicleService := service.NewVehicleService(zap.NewNop(), env.store, env.hub)
	env.hub.SetInitDataProvider(vehicleService.InitData)
	go env.hub.Run(ctx)

	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string `json:"type"`
		Data struct {
			Cars []models.Vehicle `json:"cars"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MsgTypeInit, msg.Type)
	assert.Len(t, msg.Data.Cars, 2)
}
