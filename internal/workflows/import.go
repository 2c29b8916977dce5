package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// ErrTypeInvalidNetwork is the application error type for rejected datasets.
const ErrTypeInvalidNetwork = "InvalidNetwork"

// NetworkImportInput is the input for the network import workflow.
type NetworkImportInput struct {
	// Path of a JSON dataset readable by the worker. Empty imports the
	// embedded sample network.
	Path string
	// Strict rejects datasets whose graph build reports diagnostics.
	Strict bool
}

// NetworkSummary describes a validated network revision.
type NetworkSummary struct {
	Checksum    string
	Stations    int
	Lines       int
	Edges       int
	Nodes       int
	Diagnostics []string
}

// NetworkImportResult is returned when the workflow completes.
type NetworkImportResult struct {
	Summary   NetworkSummary
	Published bool
}

// NetworkImportWorkflow loads a dataset, validates it, replaces the stored
// network and announces the new revision to running API instances.
// A failed announcement does not undo the import: instances still pick up
// the new network on their next restart or invalidation.
func NetworkImportWorkflow(ctx workflow.Context, input NetworkImportInput) (*NetworkImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting network import", "path", input.Path, "strict", input.Strict)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidNetwork},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Load
	var network domain.Network
	if err := workflow.ExecuteActivity(ctx, "LoadDataset", input.Path).Get(ctx, &network); err != nil {
		return nil, err
	}

	// Step 2: Validate and build once to collect diagnostics
	var summary NetworkSummary
	if err := workflow.ExecuteActivity(ctx, "ValidateNetwork", &network, input.Strict).Get(ctx, &summary); err != nil {
		return nil, err
	}

	// Step 3: Store
	if err := workflow.ExecuteActivity(ctx, "StoreNetwork", &network).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 4: Announce
	result := &NetworkImportResult{Summary: summary, Published: true}
	if err := workflow.ExecuteActivity(ctx, "PublishNetworkUpdated", summary).Get(ctx, nil); err != nil {
		logger.Warn("network stored but not announced", "checksum", summary.Checksum, "error", err)
		result.Published = false
	}

	logger.Info("Network imported", "checksum", summary.Checksum, "stations", summary.Stations)
	return result, nil
}
