package routing

import (
	"log/slog"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// Costs are the minute constants used to price a path.
type Costs struct {
	StopMinutes     float64
	TransferMinutes float64
}

// DefaultCosts matches the reference network: 4 minutes per stop,
// 2 minutes per transfer.
var DefaultCosts = Costs{
	StopMinutes:     domain.DefaultStopMinutes,
	TransferMinutes: domain.DefaultTransferMinutes,
}

// Summarize derives stop and transfer counts, minutes, the collapsed
// coordinate sequence and transfer stations of a solved path.
// Nodes without metadata are skipped and reported.
func Summarize(path Path, g *Graph, costs Costs) (*domain.RouteResult, []Diagnostic) {
	return SummarizeWithLogger(path, g, costs, slog.Default())
}

// SummarizeWithLogger is Summarize with an explicit diagnostics logger.
func SummarizeWithLogger(path Path, g *Graph, costs Costs, logger *slog.Logger) (*domain.RouteResult, []Diagnostic) {
	diag := newDiagnostics(logger)
	res := &domain.RouteResult{
		Coords:             [][2]float64{},
		TransferStationIDs: []string{},
		Path:               make([]string, 0, len(path.Nodes)),
		NodeMeta:           make(map[string]domain.NodeMeta, len(path.Nodes)),
	}

	for _, k := range path.Nodes {
		res.Path = append(res.Path, k.String())
		if m, ok := g.Meta(k); ok {
			res.NodeMeta[k.String()] = m
		}
	}

	for i := 1; i < len(path.Nodes); i++ {
		a, okA := g.Meta(path.Nodes[i-1])
		b, okB := g.Meta(path.Nodes[i])
		if !okA || !okB {
			continue
		}
		switch {
		case a.StationID == b.StationID && a.LineID != b.LineID:
			res.Transfers++
			res.TransferStationIDs = append(res.TransferStationIDs, a.StationID)
		case a.LineID == b.LineID && a.StationID != b.StationID:
			res.Stops++
		}
	}
	res.Minutes = float64(res.Stops)*costs.StopMinutes + float64(res.Transfers)*costs.TransferMinutes

	lastStation := ""
	for _, k := range path.Nodes {
		m, ok := g.Meta(k)
		if !ok {
			diag.report(KindMissingMetadata, k, "path node has no metadata, skipped")
			continue
		}
		if m.StationID == lastStation {
			continue
		}
		lastStation = m.StationID
		if st, ok := g.Station(m.StationID); ok {
			res.Coords = append(res.Coords, [2]float64{st.Lat, st.Lng})
		}
	}

	if len(path.Nodes) > 0 {
		res.From = path.Nodes[0].StationID
		res.To = path.Nodes[len(path.Nodes)-1].StationID
	}
	return res, diag.list
}

// Planner answers route queries over one built graph.
type Planner struct {
	graph *Graph
	costs Costs
}

// NewPlanner wraps a built graph with its pricing constants.
func NewPlanner(g *Graph, costs Costs) *Planner {
	return &Planner{graph: g, costs: costs}
}

// Graph returns the underlying routing graph.
func (p *Planner) Graph() *Graph { return p.graph }

// Costs returns the pricing constants.
func (p *Planner) Costs() Costs { return p.costs }

// Plan solves and summarizes a route from start to end.
// found is false when end is unreachable.
func (p *Planner) Plan(start, end domain.Station) (res *domain.RouteResult, diags []Diagnostic, found bool) {
	path, ok := Solve(p.graph, start, end)
	if !ok {
		return nil, nil, false
	}
	res, diags = Summarize(path, p.graph, p.costs)
	res.From, res.To = start.ID, end.ID
	return res, diags, true
}
