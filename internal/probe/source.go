// Package probe fetches metric snapshots from the external health-probe
// subsystem over HTTP. The probe endpoint serves a flat JSON object of
// metric name to numeric value, which maps directly onto domain.Snapshot.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vigil-go/internal/domain"
)

// maxSnapshotBytes bounds how much of the probe response is read.
const maxSnapshotBytes = 1 << 20

// Source pulls snapshots from the probe endpoint.
type Source struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewSource creates an HTTP snapshot source.
func NewSource(url string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves the current metric snapshot.
func (s *Source) Fetch(ctx context.Context) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("probe returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read probe response: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse probe response: %w", err)
	}

	s.logger.Debug("fetched snapshot", "metrics", len(snapshot))

	return snapshot, nil
}
