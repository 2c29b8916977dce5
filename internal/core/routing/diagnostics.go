package routing

import (
	"fmt"
	"log/slog"
)

// DiagnosticKind classifies a recoverable data problem.
type DiagnosticKind string

const (
	// KindDataIntegrity marks an edge that references an unknown
	// (station, line) pair or is otherwise malformed.
	KindDataIntegrity DiagnosticKind = "data_integrity"
	// KindMissingMetadata marks a path node with no registered metadata.
	KindMissingMetadata DiagnosticKind = "missing_metadata"
)

// Diagnostic is a warning raised while building or summarizing.
// None of them abort the computation.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Node    string         `json:"node,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Node == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, d.Node)
}

// diagnostics collects warnings and mirrors them to slog.
type diagnostics struct {
	logger *slog.Logger
	list   []Diagnostic
}

func newDiagnostics(logger *slog.Logger) *diagnostics {
	if logger == nil {
		logger = slog.Default()
	}
	return &diagnostics{logger: logger}
}

func (d *diagnostics) report(kind DiagnosticKind, node NodeKey, format string, args ...any) {
	diag := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if node != (NodeKey{}) {
		diag.Node = node.String()
	}
	d.list = append(d.list, diag)
	d.logger.Warn("routing diagnostic", "kind", string(kind), "node", diag.Node, "message", diag.Message)
}
