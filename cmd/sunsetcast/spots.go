package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lox/sunsetcast/internal/models"
)

type spotsFile struct {
	Spots []models.Spot `yaml:"spots"`
}

// loadSpotsFile reads a seed list of spots. Missing ids are generated and
// missing types default to custom.
func loadSpotsFile(path string) ([]models.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spots file: %w", err)
	}
	return parseSpots(data)
}

func parseSpots(data []byte) ([]models.Spot, error) {
	var f spotsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse spots file: %w", err)
	}
	if len(f.Spots) == 0 {
		return nil, errors.New("spots file lists no spots")
	}

	for i := range f.Spots {
		sp := &f.Spots[i]
		if sp.ID == "" {
			sp.ID = uuid.NewString()
		}
		if sp.Type == "" {
			sp.Type = models.SpotCustom
		}
		if sp.Icon == "" {
			sp.Icon = models.CustomSpotIcon
		}
		if !sp.Type.Valid() {
			return nil, fmt.Errorf("spot %q: unknown type %q", sp.Name, sp.Type)
		}
	}
	return f.Spots, nil
}
