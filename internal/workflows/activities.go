package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/metropath/internal/adapters/dataset"
	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/ports"
	"github.com/samirrijal/metropath/internal/core/routing"
)

// ImportActivities holds the activity implementations for the import workflow.
type ImportActivities struct {
	Writer    ports.NetworkWriter
	Publisher ports.EventPublisher // optional
	Logger    *slog.Logger
}

func (a *ImportActivities) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// LoadDataset reads and decodes a network file, or the embedded sample
// when path is empty.
func (a *ImportActivities) LoadDataset(ctx context.Context, path string) (*domain.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return dataset.Sample()
	}
	n, err := dataset.LoadFile(path)
	if err != nil {
		// Decoding and validation problems will not improve on retry.
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("load dataset %s: %v", path, err), ErrTypeInvalidNetwork, err)
	}
	return n, nil
}

// ValidateNetwork normalizes and validates the network, then builds the
// routing graph once to collect data-integrity diagnostics.
func (a *ImportActivities) ValidateNetwork(ctx context.Context, n *domain.Network, strict bool) (NetworkSummary, error) {
	if n == nil {
		return NetworkSummary{}, temporal.NewNonRetryableApplicationError("empty network", ErrTypeInvalidNetwork, nil)
	}
	if corrected := n.Normalize(); len(corrected) > 0 {
		a.logger().Warn("transfer flags corrected", "stations", corrected)
	}
	if err := n.Validate(); err != nil {
		return NetworkSummary{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidNetwork, err)
	}

	g := routing.BuildWithLogger(n.Stations, n.Edges, a.logger())
	summary := NetworkSummary{
		Checksum: n.Checksum(),
		Stations: len(n.Stations),
		Lines:    len(n.Lines),
		Edges:    len(n.Edges),
		Nodes:    g.NodeCount(),
	}
	for _, d := range g.Diagnostics() {
		summary.Diagnostics = append(summary.Diagnostics, d.String())
	}

	if strict && len(summary.Diagnostics) > 0 {
		return summary, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%d diagnostics in strict mode", len(summary.Diagnostics)), ErrTypeInvalidNetwork, nil)
	}
	return summary, nil
}

// StoreNetwork replaces the stored network.
func (a *ImportActivities) StoreNetwork(ctx context.Context, n *domain.Network) error {
	if err := a.Writer.Replace(ctx, n); err != nil {
		return fmt.Errorf("store network: %w", err)
	}
	a.logger().Info("network stored", "stations", len(n.Stations), "edges", len(n.Edges))
	return nil
}

// PublishNetworkUpdated announces a stored revision.
func (a *ImportActivities) PublishNetworkUpdated(ctx context.Context, s NetworkSummary) error {
	if a.Publisher == nil {
		a.logger().Info("network updated (no publisher)", "checksum", s.Checksum)
		return nil
	}
	return a.Publisher.PublishNetworkUpdated(ctx, &domain.NetworkUpdatedEvent{
		Checksum:  s.Checksum,
		Stations:  s.Stations,
		Lines:     s.Lines,
		Edges:     s.Edges,
		UpdatedAt: time.Now().UTC(),
	})
}
