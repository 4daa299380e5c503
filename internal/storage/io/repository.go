package io

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/storage"
)

var (
	_ storage.RunConfigRepository = &RunFileRepository{}
	_ storage.RunConfigRepository = &RunFileYAMLRepository{}
	_ storage.RunConfigRepository = &RunFileHCLRepository{}
)

// RunFileRepository loads run files choosing the format by their extension,
// `.hcl` files are HCL and the rest YAML.
type RunFileRepository struct {
	yaml *RunFileYAMLRepository
	hcl  *RunFileHCLRepository
}

// NewRunFileRepository creates a new run file repository.
func NewRunFileRepository(filesystem fs.FS) *RunFileRepository {
	return &RunFileRepository{
		yaml: NewRunFileYAMLRepository(filesystem),
		hcl:  NewRunFileHCLRepository(filesystem),
	}
}

func (r *RunFileRepository) GetRunConfig(ctx context.Context, path string) (model.RunConfig, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return r.hcl.GetRunConfig(ctx, path)
	}
	return r.yaml.GetRunConfig(ctx, path)
}
