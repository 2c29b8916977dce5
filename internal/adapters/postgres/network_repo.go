package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/pkg/telemetry"
)

// NetworkRepo implements ports.NetworkRepository and ports.NetworkWriter.
// Row order is kept in a position column because edge order decides
// adjacency order in the routing graph.
type NetworkRepo struct {
	db *DB
}

// NewNetworkRepo creates a new NetworkRepo.
func NewNetworkRepo(db *DB) *NetworkRepo {
	return &NetworkRepo{db: db}
}

// Load reads the whole network.
func (r *NetworkRepo) Load(ctx context.Context) (*domain.Network, error) {
	n := &domain.Network{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT stop_minutes, transfer_minutes FROM network_settings WHERE id = 1
	`).Scan(&n.StopMinutes, &n.TransferMinutes)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if n.Lines, err = r.loadLines(ctx); err != nil {
		return nil, err
	}
	if n.Stations, err = r.loadStations(ctx); err != nil {
		return nil, err
	}
	if n.Edges, err = r.loadEdges(ctx); err != nil {
		return nil, err
	}

	n.Normalize()
	return n, nil
}

func (r *NetworkRepo) loadLines(ctx context.Context) ([]domain.Line, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(color, '') FROM lines ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *NetworkRepo) loadStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT s.id, s.name, s.lat, s.lng, COALESCE(s.description, ''),
		       COALESCE(array_agg(sl.line_id ORDER BY sl.position) FILTER (WHERE sl.line_id IS NOT NULL), '{}')
		FROM stations s
		LEFT JOIN station_lines sl ON sl.station_id = s.id
		GROUP BY s.id
		ORDER BY s.position
	`)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.Description, &s.Lines); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *NetworkRepo) loadEdges(ctx context.Context) ([]domain.Edge, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT from_station, to_station, line_tag, weight FROM edges ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.Edge
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Line, &e.Weight); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Replace swaps the stored network for n in one transaction.
func (r *NetworkRepo) Replace(ctx context.Context, n *domain.Network) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNetworkStore)
	defer span.End()
	span.SetAttributes(attribute.Int("metro.stations", len(n.Stations)), attribute.Int("metro.edges", len(n.Edges)))

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE edges, station_lines, stations, lines`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO network_settings (id, stop_minutes, transfer_minutes, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET stop_minutes = EXCLUDED.stop_minutes,
		    transfer_minutes = EXCLUDED.transfer_minutes,
		    updated_at = EXCLUDED.updated_at
	`, n.StopMinutes, n.TransferMinutes)
	for i, l := range n.Lines {
		batch.Queue(`INSERT INTO lines (id, name, color, position) VALUES ($1, $2, NULLIF($3, ''), $4)`,
			l.ID, l.Name, l.Color, i)
	}
	for i, s := range n.Stations {
		batch.Queue(`INSERT INTO stations (id, name, lat, lng, description, position) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
			s.ID, s.Name, s.Lat, s.Lng, s.Description, i)
		for j, lineID := range s.Lines {
			batch.Queue(`INSERT INTO station_lines (station_id, line_id, position) VALUES ($1, $2, $3)`,
				s.ID, lineID, j)
		}
	}
	for i, e := range n.Edges {
		batch.Queue(`INSERT INTO edges (position, from_station, to_station, line_tag, weight) VALUES ($1, $2, $3, $4, $5)`,
			i, e.From, e.To, e.Line, e.Weight)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
