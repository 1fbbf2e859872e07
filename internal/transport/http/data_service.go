package http

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"usagecli/internal/exporter"
	"usagecli/pkg/contracts/domain"
)

// DataService supplies the consolidated dataset the API serves.
type DataService interface {
	// LatestConsolidated returns the newest consolidated dataset and the
	// artifact it was loaded from.
	LatestConsolidated(ctx context.Context) (*domain.ConsolidatedDataset, string, error)
}

// ArtifactDataService serves the newest consolidated artifact found in
// the data directory. The pipeline never overwrites artifacts, so "latest
// by name" is "latest by generation timestamp".
type ArtifactDataService struct {
	dataDir string
}

// NewArtifactDataService creates a data service over the given directory.
func NewArtifactDataService(dataDir string) *ArtifactDataService {
	return &ArtifactDataService{dataDir: dataDir}
}

// LatestConsolidated loads the lexicographically newest consolidated_*.csv.
func (s *ArtifactDataService) LatestConsolidated(ctx context.Context) (*domain.ConsolidatedDataset, string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "consolidated_*.csv"))
	if err != nil {
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, "", os.ErrNotExist
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	dataset, err := exporter.ReadDataset(latest)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load artifact %s: %w", latest, err)
	}
	return dataset, latest, nil
}
