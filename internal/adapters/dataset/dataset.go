// Package dataset loads static metro network descriptions from JSON.
package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samirrijal/metropath/internal/core/domain"
)

//go:embed sample_network.json
var sampleNetwork []byte

// Sample returns the bundled reference network, normalized and validated.
func Sample() (*domain.Network, error) {
	return Decode(bytes.NewReader(sampleNetwork))
}

// SampleBytes returns the raw bundled dataset.
func SampleBytes() []byte {
	out := make([]byte, len(sampleNetwork))
	copy(out, sampleNetwork)
	return out
}

// LoadFile reads a network from a JSON file on disk.
func LoadFile(path string) (*domain.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	n, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return n, nil
}

// Decode parses, normalizes and validates a network document.
func Decode(r io.Reader) (*domain.Network, error) {
	var n domain.Network
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	if corrected := n.Normalize(); len(corrected) > 0 {
		slog.Warn("dataset is_transfer flags disagree with station lines", "stations", corrected)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Repo serves a network from a file path, or the bundled sample when the
// path is empty. It satisfies ports.NetworkRepository.
type Repo struct {
	path string
}

// NewRepo creates a file-backed network repository.
func NewRepo(path string) *Repo {
	return &Repo{path: path}
}

// Load reads the network on every call so an edited file is picked up on
// the next reload.
func (r *Repo) Load(ctx context.Context) (*domain.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.path == "" {
		return Sample()
	}
	return LoadFile(r.path)
}
