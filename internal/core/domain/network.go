package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/metropath/internal/pkg/validator"
)

// Default per-stop and per-transfer travel times, in minutes.
const (
	DefaultStopMinutes     = 4
	DefaultTransferMinutes = 2
)

// Network is the static description of a metro network.
type Network struct {
	Stations        []Station `json:"stations" validate:"dive"`
	Lines           []Line    `json:"lines" validate:"dive"`
	Edges           []Edge    `json:"edges" validate:"dive"`
	StopMinutes     float64   `json:"stop_minutes" validate:"gte=0"`
	TransferMinutes float64   `json:"transfer_minutes" validate:"gte=0"`
}

// Validate checks struct constraints and id uniqueness.
// Dangling references between edges and stations are not errors here: the
// graph builder reports them as data-integrity warnings.
func (n *Network) Validate() error {
	if err := validator.Validate(n); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	var errs []string
	seenStations := make(map[string]struct{}, len(n.Stations))
	for _, s := range n.Stations {
		if _, dup := seenStations[s.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate station id %q", s.ID))
		}
		if strings.Contains(s.ID, NodeSeparator) {
			errs = append(errs, fmt.Sprintf("station id %q contains the node separator", s.ID))
		}
		for _, l := range s.Lines {
			if strings.Contains(l, NodeSeparator) {
				errs = append(errs, fmt.Sprintf("station %q line %q contains the node separator", s.ID, l))
			}
		}
		seenStations[s.ID] = struct{}{}
	}
	seenLines := make(map[string]struct{}, len(n.Lines))
	for _, l := range n.Lines {
		if _, dup := seenLines[l.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate line id %q", l.ID))
		}
		if strings.Contains(l.ID, TransferSeparator) {
			errs = append(errs, fmt.Sprintf("line id %q contains the transfer separator", l.ID))
		}
		if strings.Contains(l.ID, NodeSeparator) {
			errs = append(errs, fmt.Sprintf("line id %q contains the node separator", l.ID))
		}
		seenLines[l.ID] = struct{}{}
	}

	for _, e := range n.Edges {
		if strings.Contains(e.Line, NodeSeparator) {
			errs = append(errs, fmt.Sprintf("edge %s->%s line %q contains the node separator", e.From, e.To, e.Line))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("network: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Normalize fills derived fields: IsTransfer on every station and default
// minute constants when the dataset leaves them at zero. It returns the ids
// of stations whose stored IsTransfer flag disagreed with their lines.
func (n *Network) Normalize() (corrected []string) {
	for i := range n.Stations {
		derived := len(n.Stations[i].Lines) > 1
		if n.Stations[i].IsTransfer != derived {
			corrected = append(corrected, n.Stations[i].ID)
		}
		n.Stations[i].IsTransfer = derived
	}
	if n.StopMinutes == 0 {
		n.StopMinutes = DefaultStopMinutes
	}
	if n.TransferMinutes == 0 {
		n.TransferMinutes = DefaultTransferMinutes
	}
	return corrected
}

// Station returns the station with the given id.
func (n *Network) Station(id string) (Station, bool) {
	for _, s := range n.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Line returns the line with the given id.
func (n *Network) Line(id string) (Line, bool) {
	for _, l := range n.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// Checksum returns a short content hash identifying this network revision.
func (n *Network) Checksum() string {
	data, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}
