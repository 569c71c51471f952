package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/terra-climate-extremes/internal/pipeline"
)

// Sink writes region reports as pretty-printed JSON files under a directory,
// one file per (region, event year). It implements pipeline.ArtifactSink and
// serves runs that have no broker attached.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates a Sink rooted at dir.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

// Publish writes the report to <dir>/<region>_<event year>.json.
func (s *Sink) Publish(_ context.Context, report pipeline.RegionReport) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d.json", report.Region, report.EventYear))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	s.logger.Info("report written", "path", path)
	return nil
}
