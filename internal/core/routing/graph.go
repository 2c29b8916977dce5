// Package routing builds the line-expanded routing graph of a metro network
// and finds transfer-aware shortest routes over it.
//
// Every station is split into one node per line it serves. Riding between
// stations moves along a line's nodes; changing lines at a station moves
// between two nodes of that station and costs the transfer time.
package routing

import (
	"log/slog"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// NodeKey identifies a routing node: one line at one station.
type NodeKey struct {
	StationID string
	LineID    string
}

// String renders the key as "station@line" for output and logs.
func (k NodeKey) String() string {
	return k.StationID + domain.NodeSeparator + k.LineID
}

// Meta returns the key as output metadata.
func (k NodeKey) Meta() domain.NodeMeta {
	return domain.NodeMeta{StationID: k.StationID, LineID: k.LineID}
}

// Arc is a weighted directed connection to another node.
type Arc struct {
	To   NodeKey
	Cost float64
}

// Graph is the adjacency structure the solver runs on. It is never mutated
// after Build returns and may be shared between goroutines.
type Graph struct {
	adj         map[NodeKey][]Arc
	meta        map[NodeKey]domain.NodeMeta
	stations    map[string]domain.Station
	arcs        int
	diagnostics []Diagnostic
}

// Build constructs the routing graph from stations and edges.
func Build(stations []domain.Station, edges []domain.Edge) *Graph {
	return BuildWithLogger(stations, edges, slog.Default())
}

// BuildWithLogger is Build with an explicit diagnostics logger.
func BuildWithLogger(stations []domain.Station, edges []domain.Edge, logger *slog.Logger) *Graph {
	g := &Graph{
		adj:      make(map[NodeKey][]Arc),
		meta:     make(map[NodeKey]domain.NodeMeta),
		stations: make(map[string]domain.Station, len(stations)),
	}
	diag := newDiagnostics(logger)

	for _, st := range stations {
		g.stations[st.ID] = st
		for _, lineID := range st.Lines {
			k := NodeKey{StationID: st.ID, LineID: lineID}
			g.meta[k] = k.Meta()
		}
	}

	for _, e := range edges {
		if e.Weight < 0 {
			diag.report(KindDataIntegrity, NodeKey{}, "edge %s->%s on %q has negative weight %v, skipped", e.From, e.To, e.Line, e.Weight)
			continue
		}

		if e.IsTransfer() {
			lineA, lineB, ok := e.TransferLines()
			if !ok || lineA == lineB {
				diag.report(KindDataIntegrity, NodeKey{}, "malformed transfer tag %q on %s->%s, skipped", e.Line, e.From, e.To)
				continue
			}
			if e.From != e.To {
				diag.report(KindDataIntegrity, NodeKey{}, "transfer %q joins different stations %s and %s", e.Line, e.From, e.To)
			}
			from := NodeKey{StationID: e.From, LineID: lineA}
			to := NodeKey{StationID: e.To, LineID: lineB}
			g.checkNode(diag, from, "transfer")
			g.checkNode(diag, to, "transfer")
			g.addArc(from, to, e.Weight)
			g.addArc(to, from, e.Weight)
			continue
		}

		if e.From == e.To {
			diag.report(KindDataIntegrity, NodeKey{StationID: e.From, LineID: e.Line}, "stop edge loops on itself")
		}
		from := NodeKey{StationID: e.From, LineID: e.Line}
		to := NodeKey{StationID: e.To, LineID: e.Line}
		g.checkNode(diag, from, "stop")
		g.checkNode(diag, to, "stop")
		g.addArc(from, to, e.Weight)
	}

	g.diagnostics = diag.list
	return g
}

func (g *Graph) checkNode(diag *diagnostics, k NodeKey, kind string) {
	if _, ok := g.meta[k]; !ok {
		diag.report(KindDataIntegrity, k, "%s edge references a node not registered by any station", kind)
	}
}

func (g *Graph) addArc(from, to NodeKey, cost float64) {
	g.adj[from] = append(g.adj[from], Arc{To: to, Cost: cost})
	g.arcs++
}

// Arcs returns the outgoing arcs of k in input order.
func (g *Graph) Arcs(k NodeKey) []Arc {
	return g.adj[k]
}

// Meta returns the registered metadata of k.
func (g *Graph) Meta(k NodeKey) (domain.NodeMeta, bool) {
	m, ok := g.meta[k]
	return m, ok
}

// Station returns the station with the given id.
func (g *Graph) Station(id string) (domain.Station, bool) {
	s, ok := g.stations[id]
	return s, ok
}

// NodeCount is the number of registered (station, line) nodes.
func (g *Graph) NodeCount() int { return len(g.meta) }

// ArcCount is the number of directed arcs, transfers counted twice.
func (g *Graph) ArcCount() int { return g.arcs }

// Diagnostics returns the warnings raised while building.
func (g *Graph) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(g.diagnostics))
	copy(out, g.diagnostics)
	return out
}
