package domain

import (
	"strings"
	"time"
)

// TransferSeparator joins the two line ids of a transfer edge tag ("1-2").
const TransferSeparator = "-"

// NodeSeparator joins station and line ids in rendered routing node keys
// ("101@1"). Station and line ids must not contain it.
const NodeSeparator = "@"

// Line represents a metro line.
type Line struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// Station represents a station on one or more lines.
type Station struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Lines       []string `json:"lines" validate:"min=1,dive,required"`
	IsTransfer  bool     `json:"is_transfer"`
	Description string   `json:"description,omitempty"`
}

// Location returns the station position on the map plane.
func (s Station) Location() GeoPoint {
	return GeoPoint{Lat: s.Lat, Lng: s.Lng}
}

// Serves reports whether the station belongs to lineID.
func (s Station) Serves(lineID string) bool {
	for _, l := range s.Lines {
		if l == lineID {
			return true
		}
	}
	return false
}

// Edge is a directed connection between two stations.
// A Line tag containing TransferSeparator marks a transfer edge.
type Edge struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Line   string  `json:"line" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// IsTransfer reports whether the edge tag names two lines.
func (e Edge) IsTransfer() bool {
	return strings.Contains(e.Line, TransferSeparator)
}

// TransferLines splits a transfer tag into its two line ids.
func (e Edge) TransferLines() (lineA, lineB string, ok bool) {
	lineA, lineB, ok = strings.Cut(e.Line, TransferSeparator)
	if !ok || lineA == "" || lineB == "" {
		return lineA, lineB, false
	}
	return lineA, lineB, true
}

// NodeMeta identifies the station and line of a routing node.
type NodeMeta struct {
	StationID string `json:"station_id"`
	LineID    string `json:"line_id"`
}

// RouteResult is the summarized shortest route between two stations.
type RouteResult struct {
	From               string              `json:"from"`
	To                 string              `json:"to"`
	Minutes            float64             `json:"minutes"`
	Stops              int                 `json:"stops"`
	Transfers          int                 `json:"transfers"`
	Coords             [][2]float64        `json:"coords"`
	TransferStationIDs []string            `json:"transfer_station_ids"`
	Path               []string            `json:"path"`
	NodeMeta           map[string]NodeMeta `json:"node_meta"`
}

// RouteHistoryEntry is a previously planned (from, to) pair.
type RouteHistoryEntry struct {
	From Station `json:"from"`
	To   Station `json:"to"`
}

// Same reports whether both entries refer to the same station pair.
func (h RouteHistoryEntry) Same(other RouteHistoryEntry) bool {
	return h.From.ID == other.From.ID && h.To.ID == other.To.ID
}

// RouteComputedEvent is published after a successful route query.
type RouteComputedEvent struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	Minutes    float64   `json:"minutes"`
	Stops      int       `json:"stops"`
	Transfers  int       `json:"transfers"`
	Network    string    `json:"network"`
	ComputedAt time.Time `json:"computed_at"`
	FromCache  bool      `json:"from_cache"`
}

// NetworkUpdatedEvent is published after a new network has been stored.
type NetworkUpdatedEvent struct {
	Checksum  string    `json:"checksum"`
	Stations  int       `json:"stations"`
	Lines     int       `json:"lines"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}
