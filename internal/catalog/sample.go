package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "embed"
)

//go:embed sample.yaml
var sampleCatalog []byte

// Sample returns a fresh copy of the built-in catalog.
func Sample() (*Catalog, error) {
	return Parse(sampleCatalog)
}

// SeedResult describes what Seed did.
type SeedResult struct {
	AlreadySeeded bool
	Path          string
	Assessments   int
	JobRoles      int
}

// Seed writes the sample catalog to path. An existing catalog that already holds
// assessments is left untouched unless force is set.
func Seed(path string, force bool) (*SeedResult, error) {
	if !force {
		existing, err := readExisting(path)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Len() > 0 {
			return &SeedResult{AlreadySeeded: true, Path: path, Assessments: existing.Len(), JobRoles: len(existing.JobRoles)}, nil
		}
	}

	sample, err := Sample()
	if err != nil {
		return nil, fmt.Errorf("load sample catalog: %w", err)
	}

	if err := Save(path, sample); err != nil {
		return nil, err
	}

	return &SeedResult{Path: path, Assessments: sample.Len(), JobRoles: len(sample.JobRoles)}, nil
}

// Save writes the catalog as YAML, creating parent directories as needed.
func Save(path string, c *Catalog) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}

	data, err := Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func readExisting(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return Parse(data)
}
