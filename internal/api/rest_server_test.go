package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/vertex/internal/config"
	"github.com/annel0/vertex/internal/journal"
	"github.com/annel0/vertex/internal/physics"
	"github.com/annel0/vertex/internal/resources"
	"github.com/annel0/vertex/internal/sim"
	"github.com/annel0/vertex/internal/storage"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

type apiFixture struct {
	server  *RestServer
	sim     *sim.Simulation
	journal *journal.MemoryJournal
}

// newAPIFixture мир шириной 4: фундамент Dirt на y=0, воздух до y=3
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	catalog := material.DefaultCatalog()
	grid := world.NewGrid(4, 0, 3, catalog)
	for x := 0; x < 4; x++ {
		pos := vec.Vec2{X: x, Y: 0}
		require.NoError(t, grid.SetTile(pos, world.NewFoundationTile(catalog, material.Dirt, pos)))
		for y := 1; y <= 3; y++ {
			require.NoError(t, grid.SetMaterial(vec.Vec2{X: x, Y: y}, material.Air))
		}
	}

	res := resources.NewManager(storage.NewMemoryLedgerRepo())
	require.NoError(t, res.Seed(ctx, map[material.Material]int{material.Wood: 3}))

	j := journal.NewMemoryJournal()
	s, err := sim.New(config.SimulationConfig{
		TickInterval: 50 * time.Millisecond,
		WorkTime:     100 * time.Millisecond,
		MaxTasks:     4,
		Workers:      1,
	}, sim.Deps{
		Engine:      physics.NewEngine(grid),
		Resources:   res,
		ReportSinks: []sim.ReportSink{journal.NewSink(j, false)},
	})
	require.NoError(t, err)

	server, err := NewRestServer(Config{World: s, Journal: j, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	return &apiFixture{server: server, sim: s, journal: j}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	var resp GenericResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	w, _ := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestPlaceAndGetTile(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/tiles", `{"x":1,"y":1,"material":"Stone"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	w, _ = f.do(t, http.MethodPost, "/api/tiles", `{"x":1,"y":1,"material":"Wood"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "Занятая клетка")

	w, _ = f.do(t, http.MethodPost, "/api/tiles", `{"x":3,"y":3,"material":"Wood"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "Нет опоры")

	_, err := f.sim.Step(context.Background())
	require.NoError(t, err)

	w, resp = f.do(t, http.MethodGet, "/api/tiles/1/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Stone", data["material"])
	assert.Equal(t, 20.0, data["current_load"])
	assert.Equal(t, "safe", data["status"])
	assert.Equal(t, true, data["is_supported"])

	w, _ = f.do(t, http.MethodGet, "/api/tiles/1/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceTile_BadInput(t *testing.T) {
	f := newAPIFixture(t)

	cases := map[string]string{
		"out of bounds":    `{"x":4,"y":1,"material":"Stone"}`,
		"negative x":       `{"x":-1,"y":1,"material":"Stone"}`,
		"unknown material": `{"x":1,"y":1,"material":"Gold"}`,
		"missing y":        `{"x":1,"material":"Stone"}`,
		"not json":         `{`,
	}
	for name, body := range cases {
		w, resp := f.do(t, http.MethodPost, "/api/tiles", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.False(t, resp.Success, name)
	}

	w, _ := f.do(t, http.MethodGet, "/api/tiles/a/1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveTile(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodDelete, "/api/tiles/2/0", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/tiles/2/0", "")
	assert.Equal(t, http.StatusConflict, w.Code, "Воздух не выкапывается")

	w, _ = f.do(t, http.MethodDelete, "/api/tiles/9/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := f.do(t, http.MethodGet, "/api/resources", "")
	require.Equal(t, http.StatusOK, w.Code)
	balances := resp.Data.(map[string]interface{})
	assert.Equal(t, 1.0, balances["Dirt"], "Копание даёт ровно одну единицу")
	assert.Equal(t, 3.0, balances["Wood"])
}

func TestColumnAndStability(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/columns/0", "")
	require.Equal(t, http.StatusOK, w.Code)
	cells := resp.Data.(map[string]interface{})["cells"].([]interface{})
	assert.Len(t, cells, 4)

	w, _ = f.do(t, http.MethodGet, "/api/columns/4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = f.do(t, http.MethodGet, "/api/stability", "")
	require.Equal(t, http.StatusOK, w.Code)
	stability := resp.Data.(map[string]interface{})
	assert.Equal(t, 100.0, stability["stability_percent"])
	assert.Equal(t, 4.0, stability["foundation_count"])
}

func TestTasks(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/tasks", `{"kind":"build","x":2,"y":1,"material":"Wood"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "build", resp.Data.(map[string]interface{})["kind"])

	w, _ = f.do(t, http.MethodPost, "/api/tasks", `{"kind":"build","x":2,"y":1,"material":"Steel"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "Нет стали")

	w, _ = f.do(t, http.MethodPost, "/api/tasks", `{"kind":"dig","x":2,"y":3}`)
	assert.Equal(t, http.StatusConflict, w.Code, "Нечего копать")

	w, _ = f.do(t, http.MethodPost, "/api/tasks", `{"kind":"fly","x":2,"y":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = f.do(t, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp.Data.(map[string]interface{})["total"])
}

func TestCrafting(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/crafting/gold", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := f.do(t, http.MethodGet, "/api/crafting", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, resp.Data.(map[string]interface{})["available"])
}

func TestJournal(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/tiles", `{"x":0,"y":1,"material":"Wood"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	for i := 0; i < 3; i++ {
		_, err := f.sim.Step(context.Background())
		require.NoError(t, err)
	}

	w, resp := f.do(t, http.MethodGet, "/api/journal?from=1&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp.Data.(map[string]interface{})["total"], "Пустые тики не пишутся в журнал")

	w, _ = f.do(t, http.MethodGet, "/api/journal?from=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsAndServerInfo(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodGet, "/health", "")

	w, _ := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vertex_api_http_request_duration_seconds")

	w, resp := f.do(t, http.MethodGet, "/api/server", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestStoppedSimulation(t *testing.T) {
	f := newAPIFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = f.sim.Run(ctx) }()
	require.Eventually(t, func() bool {
		w, _ := f.do(t, http.MethodGet, "/api/stability", "")
		return w.Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-f.sim.Done()

	w, _ := f.do(t, http.MethodGet, "/api/stability", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(sim.ErrOutOfBounds))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
