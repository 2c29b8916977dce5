package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/metropath/internal/adapters/nats"
	"github.com/samirrijal/metropath/internal/adapters/postgres"
	"github.com/samirrijal/metropath/internal/pkg/config"
	"github.com/samirrijal/metropath/internal/pkg/logging"
	"github.com/samirrijal/metropath/internal/workflows"
)

const usage = `usage:
  importer worker                  run the Temporal import worker
  importer run [-strict] [file]    start an import and wait for it
  importer load [-strict] [file]   import without Temporal
An empty file imports the embedded sample network.`

// command is a parsed command line.
type command struct {
	name   string
	path   string
	strict bool
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New(usage)
	}
	cmd := command{name: args[0]}
	switch cmd.name {
	case "worker":
		if len(args) > 1 {
			return command{}, fmt.Errorf("worker takes no arguments\n%s", usage)
		}
		return cmd, nil
	case "run", "load":
		fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.BoolVar(&cmd.strict, "strict", false, "reject networks with diagnostics")
		if err := fs.Parse(args[1:]); err != nil {
			return command{}, fmt.Errorf("%v\n%s", err, usage)
		}
		switch fs.NArg() {
		case 0:
		case 1:
			cmd.path = fs.Arg(0)
		default:
			return command{}, fmt.Errorf("too many arguments\n%s", usage)
		}
		return cmd, nil
	default:
		return command{}, fmt.Errorf("unknown command: %s\n%s", cmd.name, usage)
	}
}

func main() {
	cmd, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load("metropath-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	switch cmd.name {
	case "worker":
		runWorker(cfg, logger)
	case "run":
		runWorkflow(cfg, cmd)
	case "load":
		runInline(cfg, logger, cmd)
	}
}

// activities wires the import activities to Postgres and NATS.
func activities(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*workflows.ImportActivities, func()) {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	acts := &workflows.ImportActivities{Writer: postgres.NewNetworkRepo(db), Logger: logger}
	closers := []func(){db.Close}

	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, imports will not be announced", "error", err)
	} else {
		acts.Publisher = pub
		closers = append(closers, pub.Close)
	}

	return acts, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func dialTemporal(cfg *config.Config) client.Client {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	return c
}

func runWorker(cfg *config.Config, logger *slog.Logger) {
	acts, closeAll := activities(context.Background(), cfg, logger)
	defer closeAll()

	c := dialTemporal(cfg)
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.NetworkImportWorkflow)
	w.RegisterActivity(acts)

	slog.Info("import worker started", "queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func runWorkflow(cfg *config.Config, cmd command) {
	c := dialTemporal(cfg)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "network-import-" + time.Now().UTC().Format("20060102T150405"),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.NetworkImportWorkflow, workflows.NetworkImportInput{Path: cmd.path, Strict: cmd.strict})
	if err != nil {
		log.Fatalf("start import: %v", err)
	}
	slog.Info("import started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var res workflows.NetworkImportResult
	if err := run.Get(ctx, &res); err != nil {
		log.Fatalf("import failed: %v", err)
	}
	report(&res)
}

// runInline executes the import activities in order without Temporal.
func runInline(cfg *config.Config, logger *slog.Logger, cmd command) {
	ctx := context.Background()
	acts, closeAll := activities(ctx, cfg, logger)
	defer closeAll()

	network, err := acts.LoadDataset(ctx, cmd.path)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	summary, err := acts.ValidateNetwork(ctx, network, cmd.strict)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	if err := acts.StoreNetwork(ctx, network); err != nil {
		log.Fatalf("store: %v", err)
	}
	res := workflows.NetworkImportResult{Summary: summary, Published: true}
	if err := acts.PublishNetworkUpdated(ctx, summary); err != nil {
		slog.Warn("network stored but not announced", "error", err)
		res.Published = false
	}
	report(&res)
}

func report(res *workflows.NetworkImportResult) {
	s := res.Summary
	slog.Info("network imported",
		"checksum", s.Checksum,
		"stations", s.Stations,
		"lines", s.Lines,
		"edges", s.Edges,
		"nodes", s.Nodes,
		"diagnostics", len(s.Diagnostics),
		"published", res.Published,
	)
	for _, d := range s.Diagnostics {
		slog.Warn("diagnostic", "detail", d)
	}
}
