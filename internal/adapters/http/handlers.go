package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/metropath/internal/adapters/memory"
	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/routing"
	"github.com/samirrijal/metropath/internal/core/usecases"
)

// SessionHeader carries the route-history session id.
const SessionHeader = "X-Session-ID"

// NetworkInfo describes the loaded network revision.
type NetworkInfo struct {
	Checksum  string    `json:"checksum"`
	Lines     int       `json:"lines"`
	Stations  int       `json:"stations"`
	Edges     int       `json:"edges"`
	Nodes     int       `json:"nodes"`
	Arcs      int       `json:"arcs"`
	BuiltAt   time.Time `json:"built_at"`
	Transfers int       `json:"transfer_stations"`
}

// NearestStation is a station with its distance to the query point.
type NearestStation struct {
	Station  *domain.Station `json:"station"`
	Distance float64         `json:"distance"`
}

// HistorySelection is the replanned route for a history entry.
type HistorySelection struct {
	Entry   domain.RouteHistoryEntry   `json:"entry"`
	Route   *domain.RouteResult        `json:"route"`
	History []domain.RouteHistoryEntry `json:"history"`
}

// NetworkInfoHandler returns counts and the checksum of the current network.
func NetworkInfoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Network.Current(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}

		info := networkInfo(snap)

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(info)
	}
}

func networkInfo(snap *usecases.Snapshot) NetworkInfo {
	info := NetworkInfo{
		Checksum: snap.Checksum,
		Lines:    len(snap.Network.Lines),
		Stations: len(snap.Network.Stations),
		Edges:    len(snap.Network.Edges),
		Nodes:    snap.Planner.Graph().NodeCount(),
		Arcs:     snap.Planner.Graph().ArcCount(),
		BuiltAt:  snap.BuiltAt,
	}
	for _, st := range snap.Network.Stations {
		if st.IsTransfer {
			info.Transfers++
		}
	}
	return info
}

// NetworkBoundsHandler returns the bounding box of all stations.
// GET /v1/network/bounds?padding=0.05
func NetworkBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		padding := 0.0
		if raw := c.Query("padding"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errBadRequest(c, "padding must be a number")
			}
			padding = p
		}

		b, err := deps.Stations.Bounds(c.UserContext(), padding)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{"bounds": b, "center": b.Center()})
	}
}

// NetworkDiagnosticsHandler lists data-integrity findings from the graph build.
func NetworkDiagnosticsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		diags, err := deps.Network.Diagnostics(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		if diags == nil {
			diags = []routing.Diagnostic{}
		}
		return c.JSON(fiber.Map{"count": len(diags), "diagnostics": diags})
	}
}

// ListLinesHandler returns all lines.
func ListLinesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lines, err := deps.Stations.ListLines(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(lines)
	}
}

// GetLineHandler returns a single line by ID.
func GetLineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		line, err := deps.Stations.GetLine(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(line)
	}
}

// LineStationsHandler returns the stations served by a line.
func LineStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stations, err := deps.Stations.ListStations(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stations)
	}
}

// ListStationsHandler returns stations, optionally filtered by line.
// GET /v1/stations?line=2&offset=0&limit=50
func ListStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stations, err := deps.Stations.ListStations(c.UserContext(), c.Query("line"))
		if err != nil {
			return errFromService(c, err)
		}

		offset, limit := pageParams(c, 50, 200)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(stations)}
		SetLinkHeaders(c, pg, "line")
		return c.JSON(PaginatedResponse{Data: paginate(stations, offset, limit), Pagination: pg})
	}
}

// SearchStationsHandler matches station names.
// GET /v1/stations/search?q=park&limit=10
func SearchStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if strings.TrimSpace(q) == "" {
			return errBadRequest(c, "q query parameter is required")
		}

		stations, err := deps.Stations.Search(c.UserContext(), q, c.QueryInt("limit", 20))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(stations)
	}
}

// NearestStationHandler returns the station closest to a map point.
// GET /v1/stations/nearest?lat=0.4&lng=0.6
func NearestStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return errBadRequest(c, "lat and lng must be numbers")
		}

		st, dist, err := deps.Stations.Nearest(c.UserContext(), lat, lng)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(NearestStation{Station: st, Distance: dist})
	}
}

// TransferStationsHandler returns stations served by two or more lines.
func TransferStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stations, err := deps.Stations.TransferStations(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stations)
	}
}

// BatchStationsHandler returns multiple stations by ID.
func BatchStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := c.Query("ids", "")
		if ids == "" {
			return errBadRequest(c, "ids query parameter is required (comma-separated)")
		}

		var stationIDs []string
		for _, id := range strings.Split(ids, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				stationIDs = append(stationIDs, trimmed)
			}
		}
		if len(stationIDs) == 0 {
			return errBadRequest(c, "at least one station ID is required")
		}
		if len(stationIDs) > 100 {
			return errBadRequest(c, "maximum 100 station IDs allowed")
		}

		stations := make([]*domain.Station, 0, len(stationIDs))
		for _, id := range stationIDs {
			st, err := deps.Stations.GetStation(c.UserContext(), id)
			if err != nil {
				return errFromService(c, err)
			}
			stations = append(stations, st)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stations)
	}
}

// GetStationHandler returns a single station by ID.
func GetStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Stations.GetStation(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(st)
	}
}

// RouteHandler plans the fastest route between two stations.
// GET /v1/route?from=101&to=401
// GET /v1/route?from_name=Central%20Park&to_name=Airport
// The planned pair is recorded in the caller's history session.
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		from, err := resolveStation(c, deps, "from")
		if err != nil {
			return errFromService(c, err)
		}
		to, err := resolveStation(c, deps, "to")
		if err != nil {
			return errFromService(c, err)
		}

		res, err := deps.Routes.Plan(ctx, from.ID, to.ID)
		if err != nil {
			return errFromService(c, err)
		}

		if deps.History != nil {
			session := ensureSession(c)
			if _, err := deps.History.Add(ctx, session, *from, *to); err != nil {
				LoggerFromCtx(ctx).Warn("history update failed", "error", err)
			}
		}

		c.Set("Cache-Control", "private, no-store")
		return c.JSON(res)
	}
}

// resolveStation reads the <prefix> id or <prefix>_name query param.
func resolveStation(c *fiber.Ctx, deps *Dependencies, prefix string) (*domain.Station, error) {
	ctx := c.UserContext()
	if id := c.Query(prefix); id != "" {
		return deps.Stations.GetStation(ctx, id)
	}

	name := strings.TrimSpace(c.Query(prefix + "_name"))
	if name == "" {
		return nil, fmt.Errorf("%w: %s or %s_name is required", usecases.ErrInvalidArgument, prefix, prefix)
	}
	matches, err := deps.Stations.Search(ctx, name, 50)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if strings.EqualFold(matches[i].Name, name) {
			return &matches[i], nil
		}
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%w: %q", usecases.ErrStationNotFound, name)
}

// ensureSession returns the request session id, issuing one if absent.
func ensureSession(c *fiber.Ctx) string {
	session := c.Get(SessionHeader)
	if session == "" {
		session = memory.NewSessionID()
	}
	c.Set(SessionHeader, session)
	return session
}

// requireSession enforces a session header on history endpoints.
func requireSession(c *fiber.Ctx, deps *Dependencies) (string, error) {
	if deps.History == nil {
		return "", errServiceUnavailable(c, "history not available")
	}
	session := c.Get(SessionHeader)
	if session == "" {
		return "", errBadRequest(c, SessionHeader+" header is required")
	}
	return session, nil
}

// ListHistoryHandler returns the session's recent routes, most recent first.
func ListHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := requireSession(c, deps)
		if session == "" {
			return err
		}
		entries, err := deps.History.List(c.UserContext(), session)
		if err != nil {
			return errFromService(c, err)
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(entries)
	}
}

// DeleteHistoryHandler removes one pair, or clears the session when no
// pair is given.
// DELETE /v1/history?from=101&to=401
func DeleteHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := requireSession(c, deps)
		if session == "" {
			return err
		}
		ctx := c.UserContext()

		from, to := c.Query("from"), c.Query("to")
		switch {
		case from == "" && to == "":
			if err := deps.History.Clear(ctx, session); err != nil {
				return errFromService(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		case from == "" || to == "":
			return errBadRequest(c, "both from and to are required to remove an entry")
		}

		entries, err := deps.History.Remove(ctx, session, from, to)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(entries)
	}
}

// SelectHistoryHandler replans a history entry and moves it to the front.
// POST /v1/history/:index/select
func SelectHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := requireSession(c, deps)
		if session == "" {
			return err
		}
		ctx := c.UserContext()

		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return errBadRequest(c, "index must be an integer")
		}

		entry, err := deps.History.Select(ctx, session, index)
		if err != nil {
			return errFromService(c, err)
		}
		res, err := deps.Routes.Plan(ctx, entry.From.ID, entry.To.ID)
		if err != nil {
			return errFromService(c, err)
		}
		history, err := deps.History.Add(ctx, session, entry.From, entry.To)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("Cache-Control", "private, no-store")
		return c.JSON(HistorySelection{Entry: entry, Route: res, History: history})
	}
}
