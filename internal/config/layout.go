package config

import (
	"fmt"
	"os"

	"cart-route-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// LayoutFile is the on-disk shape of a corral layout.
//
//	depot: A
//	threshold: 5
//	corrals:
//	  - {id: A, x: 0, y: 0}
type LayoutFile struct {
	Depot     string         `yaml:"depot"`
	Threshold *float64       `yaml:"threshold"`
	Corrals   []LayoutCorral `yaml:"corrals"`
}

type LayoutCorral struct {
	ID string `yaml:"id"`
	X  int    `yaml:"x"`
	Y  int    `yaml:"y"`
}

// LoadRegistry builds the corral registry from the layout file at path,
// or the default lot when path is empty. A threshold in the file overrides
// cfgThreshold.
func LoadRegistry(path string, cfgThreshold float64) (*domain.Registry, float64, error) {
	if path == "" {
		depot, corrals := domain.DefaultLayout()
		r, err := domain.NewRegistry(depot, corrals)
		if err != nil {
			return nil, 0, fmt.Errorf("load registry: default layout: %w", err)
		}
		return r, cfgThreshold, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("load registry: read %q: %w", path, err)
	}

	return ParseLayout(data, cfgThreshold)
}

func ParseLayout(data []byte, cfgThreshold float64) (*domain.Registry, float64, error) {
	var lf LayoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, 0, fmt.Errorf("load registry: parse yaml: %w", err)
	}

	corrals := make([]domain.Corral, 0, len(lf.Corrals))
	for _, c := range lf.Corrals {
		corrals = append(corrals, domain.Corral{
			ID:          c.ID,
			Coordinates: domain.Coordinates{X: c.X, Y: c.Y},
		})
	}

	r, err := domain.NewRegistry(lf.Depot, corrals)
	if err != nil {
		return nil, 0, fmt.Errorf("load registry: %w", err)
	}

	threshold := cfgThreshold
	if lf.Threshold != nil {
		if *lf.Threshold < 0 {
			return nil, 0, fmt.Errorf("load registry: threshold must be >= 0, got %v", *lf.Threshold)
		}
		threshold = *lf.Threshold
	}

	return r, threshold, nil
}
