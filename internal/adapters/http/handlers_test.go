package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/metropath/internal/adapters/http"
	"github.com/samirrijal/metropath/internal/adapters/dataset"
	"github.com/samirrijal/metropath/internal/adapters/memory"
	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/routing"
	"github.com/samirrijal/metropath/internal/core/usecases"
)

// ---- Mocks ----

type mockNetworkRepo struct {
	loadFn func(ctx context.Context) (*domain.Network, error)
}

func (m *mockNetworkRepo) Load(ctx context.Context) (*domain.Network, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return dataset.Sample()
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	return makeDepsWithRepo(t, &mockNetworkRepo{}, opts...)
}

func makeDepsWithRepo(t *testing.T, repo *mockNetworkRepo, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	networks := usecases.NewNetworkService(repo, routing.Costs{}, nil)
	store := memory.NewHistoryStore(time.Hour)
	t.Cleanup(store.Close)

	d := &handler.Dependencies{
		Network:  networks,
		Stations: usecases.NewStationService(networks),
		Routes:   usecases.NewRouteService(networks, nil, nil, 0),
		History:  usecases.NewHistoryService(store, usecases.DefaultHistoryCapacity),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- Network ----

func TestNetworkInfo_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/network", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var info handler.NetworkInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Stations != 19 || info.Lines != 4 {
		t.Errorf("unexpected counts %+v", info)
	}
	if info.Transfers != 5 {
		t.Errorf("expected 5 transfer stations, got %d", info.Transfers)
	}
	if info.Checksum == "" || info.Nodes == 0 {
		t.Errorf("expected checksum and graph size, got %+v", info)
	}
}

func TestNetworkBounds_BadPadding(t *testing.T) {
	app := setupApp(makeDeps(t))

	for _, q := range []string{"abc", "2"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/network/bounds?padding="+q, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("padding=%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestNetworkDiagnostics_Clean(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/network/diagnostics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count       int                  `json:"count"`
		Diagnostics []routing.Diagnostic `json:"diagnostics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 0 || result.Diagnostics == nil {
		t.Errorf("expected empty diagnostics list, got %+v", result)
	}
}

func TestNetwork_InvalidDataIsUnavailable(t *testing.T) {
	repo := &mockNetworkRepo{
		loadFn: func(ctx context.Context) (*domain.Network, error) {
			return &domain.Network{Stations: []domain.Station{{ID: "a"}}}, nil
		},
	}
	app := setupApp(makeDepsWithRepo(t, repo))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/lines", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Lines ----

func TestListLines_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/lines", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var lines []domain.Line
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}

func TestGetLine_NotFound(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/lines/9", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %q", apiErr.Code)
	}
}

func TestLineStations_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/lines/4/stations", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stations []domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		t.Fatal(err)
	}
	if len(stations) != 5 {
		t.Errorf("expected 5 stations on line 4, got %d", len(stations))
	}
}

// ---- Stations ----

func TestListStations_Pagination(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations?offset=15&limit=10", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Station   `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 19 {
		t.Errorf("expected total 19, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 4 {
		t.Errorf("expected 4 stations on last page, got %d", len(result.Data))
	}
}

func TestListStations_LinkHeaderKeepsFilter(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations?line=1&limit=2", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
	if !strings.Contains(link, "line=1") {
		t.Errorf("expected line filter in Link header, got %s", link)
	}
}

func TestSearchStations(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations/search?q=PARK", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stations []domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		t.Fatal(err)
	}
	if len(stations) != 3 {
		t.Errorf("expected 3 matches, got %d", len(stations))
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/stations/search", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 without q, got %d", resp.StatusCode)
	}
}

func TestNearestStation(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations/nearest?lat=118&lng=52", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result handler.NearestStation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Station == nil || result.Station.ID != "301" {
		t.Errorf("expected Airport (301), got %+v", result.Station)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/stations/nearest?lat=x", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for bad coordinates, got %d", resp.StatusCode)
	}
}

func TestTransferStations(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations/transfers", nil), -1)
	var stations []domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		t.Fatal(err)
	}
	if len(stations) != 5 {
		t.Errorf("expected 5 transfer stations, got %d", len(stations))
	}
}

func TestBatchStations(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations/batch?ids=101,%20203,,401", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stations []domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		t.Fatal(err)
	}
	if len(stations) != 3 || stations[1].ID != "203" {
		t.Errorf("unexpected batch result %+v", stations)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/stations/batch?ids=101,999", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestGetStation_CacheControlAndETag(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stations/102", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/stations/102", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestCachingMiddleware_DefaultsIgnoreRequestHeader(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/stations", nil)
	req.Header.Set("Cache-Control", "no-cache")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	// Handler value wins over the /v1/ default.
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/network", nil), -1)
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

// ---- Route ----

func TestRoute_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/route?from=101&to=401", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var res domain.RouteResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Minutes != 24 || res.Stops != 5 || res.Transfers != 2 {
		t.Errorf("unexpected summary %+v", res)
	}
	if strings.Join(res.TransferStationIDs, ",") != "102,203" {
		t.Errorf("expected transfers at 102,203, got %v", res.TransferStationIDs)
	}
	if len(res.Path) != len(res.NodeMeta) {
		t.Errorf("every path node should carry metadata")
	}
	if resp.Header.Get(handler.SessionHeader) == "" {
		t.Error("expected a session id to be issued")
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("route responses must not carry an ETag")
	}
}

func TestRoute_ByName(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/route?from_name=harbor%20terminal&to_name=Lakeside", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res domain.RouteResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.From != "101" || res.To != "401" {
		t.Errorf("expected 101 -> 401, got %s -> %s", res.From, res.To)
	}
}

func TestRoute_Errors(t *testing.T) {
	app := setupApp(makeDeps(t))

	cases := []struct {
		query  string
		status int
		code   string
	}{
		{"", 400, "bad_request"},
		{"from=101", 400, "bad_request"},
		{"from=101&to=999", 404, "not_found"},
		{"from_name=nowhere&to=401", 404, "not_found"},
	}
	for _, tc := range cases {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/route?"+tc.query, nil), -1)
		if resp.StatusCode != tc.status {
			t.Errorf("%q: expected %d, got %d", tc.query, tc.status, resp.StatusCode)
			continue
		}
		if apiErr := decodeError(t, resp.Body); apiErr.Code != tc.code {
			t.Errorf("%q: expected code %s, got %s", tc.query, tc.code, apiErr.Code)
		}
	}
}

func TestRoute_NoRoute(t *testing.T) {
	repo := &mockNetworkRepo{
		loadFn: func(ctx context.Context) (*domain.Network, error) {
			return &domain.Network{
				Stations: []domain.Station{
					{ID: "a", Name: "A", Lines: []string{"1"}},
					{ID: "b", Name: "B", Lines: []string{"2"}},
				},
				Lines: []domain.Line{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}},
			}, nil
		},
	}
	app := setupApp(makeDepsWithRepo(t, repo))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/route?from=a&to=b", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "no_route" {
		t.Errorf("expected no_route, got %q", apiErr.Code)
	}
}

func TestJourneys_Deprecated(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/journeys?from=101&to=106", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/route") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

// ---- History ----

func TestHistory_FlowWithSession(t *testing.T) {
	app := setupApp(makeDeps(t))
	session := "session-1"

	for _, q := range []string{"from=101&to=401", "from=201&to=305", "from=101&to=401"} {
		req := httptest.NewRequest("GET", "/v1/route?"+q, nil)
		req.Header.Set(handler.SessionHeader, session)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 200 {
			t.Fatalf("%s: expected 200, got %d", q, resp.StatusCode)
		}
		if got := resp.Header.Get(handler.SessionHeader); got != session {
			t.Fatalf("expected session to be echoed, got %q", got)
		}
	}

	req := httptest.NewRequest("GET", "/v1/history", nil)
	req.Header.Set(handler.SessionHeader, session)
	resp, _ := app.Test(req, -1)
	var entries []domain.RouteHistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 deduplicated entries, got %d", len(entries))
	}
	if entries[0].From.ID != "101" || entries[0].To.ID != "401" {
		t.Errorf("expected most recent pair first, got %s -> %s", entries[0].From.ID, entries[0].To.ID)
	}

	// Select the older entry: it is replanned and moved to the front.
	req = httptest.NewRequest("POST", "/v1/history/1/select", nil)
	req.Header.Set(handler.SessionHeader, session)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sel handler.HistorySelection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if sel.Route == nil || sel.Route.From != "201" || sel.History[0].From.ID != "201" {
		t.Errorf("unexpected selection %+v", sel)
	}

	// Remove one pair.
	req = httptest.NewRequest("DELETE", "/v1/history?from=201&to=305", nil)
	req.Header.Set(handler.SessionHeader, session)
	resp, _ = app.Test(req, -1)
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after removal, got %d", len(entries))
	}

	// Clear.
	req = httptest.NewRequest("DELETE", "/v1/history", nil)
	req.Header.Set(handler.SessionHeader, session)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestHistory_RequiresSession(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/history", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistory_SelectOutOfRange(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("POST", "/v1/history/3/select", nil)
	req.Header.Set(handler.SessionHeader, "empty")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/v1/history/x/select", nil)
	req.Header.Set(handler.SessionHeader, "empty")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistory_Disabled(t *testing.T) {
	app := setupApp(makeDeps(t, func(d *handler.Dependencies) { d.History = nil }))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/route?from=101&to=102", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("route should work without history, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/v1/history", nil)
	req.Header.Set(handler.SessionHeader, "s")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Route(t *testing.T) {
	app := setupApp(makeDeps(t))

	body := `{"query":"{ route(from: \"101\", to: \"401\") { minutes stops transfers transfer_station_ids nodes { station_id line_id } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Route struct {
				Minutes   float64 `json:"minutes"`
				Stops     int     `json:"stops"`
				Transfers int     `json:"transfers"`
				Nodes     []struct {
					StationID string `json:"station_id"`
					LineID    string `json:"line_id"`
				} `json:"nodes"`
			} `json:"route"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if result.Data.Route.Minutes != 24 || result.Data.Route.Transfers != 2 {
		t.Errorf("unexpected route %+v", result.Data.Route)
	}
	if n := result.Data.Route.Nodes; len(n) == 0 || n[0].StationID != "101" || n[len(n)-1].LineID != "4" {
		t.Errorf("unexpected nodes %+v", n)
	}
}

func TestGraphQL_Stations(t *testing.T) {
	app := setupApp(makeDeps(t))

	body := `{"query":"{ stations(line: \"3\") { id name lines } lines { id color } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var result struct {
		Data struct {
			Stations []domain.Station `json:"stations"`
			Lines    []domain.Line    `json:"lines"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data.Stations) != 6 {
		t.Errorf("expected 6 stations on line 3, got %d", len(result.Data.Stations))
	}
	if len(result.Data.Lines) != 4 || result.Data.Lines[0].Color == "" {
		t.Errorf("unexpected lines %+v", result.Data.Lines)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_OptionalServices(t *testing.T) {
	// No DB, NATS or cache: the file-backed network alone is enough.
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_CacheDown(t *testing.T) {
	app := setupApp(makeDeps(t, func(d *handler.Dependencies) {
		d.DB = &mockPinger{}
		d.Cache = &mockPinger{err: errors.New("connection refused")}
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Checks["database"] != "ok" || !strings.HasPrefix(result.Checks["cache"], "error") {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

func TestReady_NetworkUnavailable(t *testing.T) {
	repo := &mockNetworkRepo{
		loadFn: func(ctx context.Context) (*domain.Network, error) {
			return nil, errors.New("file missing")
		},
	}
	app := setupApp(makeDepsWithRepo(t, repo))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// TestAccessLogMiddleware verifies structured access logging passes responses through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test?x=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", body)
	}
}

func TestAccessLogMiddleware_LogsErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	app := fiber.New(fiber.Config{DisableStartupMessage: true, ErrorHandler: handler.ErrorHandler})
	app.Use(handler.AccessLogMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/nowhere", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if out := buf.String(); !strings.Contains(out, "status=404") || !strings.Contains(out, "level=WARN") {
		t.Errorf("expected a WARN line with status=404, got %q", out)
	}

	buf.Reset()
	resp, _ = app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if out := buf.String(); !strings.Contains(out, "status=500") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected an ERROR line with status=500, got %q", out)
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true, ErrorHandler: handler.ErrorHandler})
	handler.SetupRoutes(app, makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/nowhere", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %q", apiErr.Code)
	}
}
