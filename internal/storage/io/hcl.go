package io

import (
	"context"
	"fmt"
	"io/fs"
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/slok/galgo/internal/model"
)

// RunFileHCLRepository loads run files from HCL files.
//
//	graph "web" {
//	  node_count    = 4
//	  relationships = [[1, 0], [2, 0]]
//
//	  property "seed" {
//	    values = [1, 2, 3, 4]
//	  }
//	}
//
//	algorithm "PageRank" {
//	  mode   = "stats"
//	  config = { dampingFactor = 0.9 }
//	}
type RunFileHCLRepository struct {
	fs fs.FS
}

// NewRunFileHCLRepository creates a new HCL run file repository.
func NewRunFileHCLRepository(filesystem fs.FS) *RunFileHCLRepository {
	return &RunFileHCLRepository{fs: filesystem}
}

type hclRunFile struct {
	Graph     hclGraph     `hcl:"graph,block"`
	Algorithm hclAlgorithm `hcl:"algorithm,block"`
}

type hclGraph struct {
	Name          string        `hcl:"name,label"`
	NodeCount     int64         `hcl:"node_count,optional"`
	Relationships [][]int64     `hcl:"relationships,optional"`
	Properties    []hclProperty `hcl:"property,block"`
}

type hclProperty struct {
	Key    string    `hcl:"key,label"`
	Values []float64 `hcl:"values"`
}

type hclAlgorithm struct {
	Name     string    `hcl:"name,label"`
	Mode     string    `hcl:"mode,optional"`
	Username string    `hcl:"username,optional"`
	JobID    string    `hcl:"job_id,optional"`
	Config   cty.Value `hcl:"config,optional"`
}

// GetRunConfig loads a run file from an HCL file and returns a validated domain model.
func (r *RunFileHCLRepository) GetRunConfig(ctx context.Context, path string) (model.RunConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("reading run file: %w", err)
	}

	if ctx.Err() != nil {
		return model.RunConfig{}, ctx.Err()
	}

	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, diags)
	}

	var hf hclRunFile
	if diags := gohcl.DecodeBody(file.Body, nil, &hf); diags.HasErrors() {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, diags)
	}

	rf, err := hf.toRunFile()
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, err)
	}

	if err := rf.validate(); err != nil {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, err)
	}

	return rf.toModel(), nil
}

// toRunFile converts the HCL document so it shares the validation of the
// YAML run files.
func (h hclRunFile) toRunFile() (RunFile, error) {
	rf := RunFile{
		Graph: GraphFile{
			Name:      h.Graph.Name,
			NodeCount: h.Graph.NodeCount,
		},
		Algorithm: AlgorithmFile{
			Name:     h.Algorithm.Name,
			Mode:     h.Algorithm.Mode,
			Username: h.Algorithm.Username,
			JobID:    h.Algorithm.JobID,
		},
	}

	if rf.Graph.Name == "" {
		return RunFile{}, fmt.Errorf("graph name is required")
	}
	if rf.Graph.NodeCount < 0 {
		return RunFile{}, fmt.Errorf("node count can't be negative")
	}
	if rf.Algorithm.Name == "" {
		return RunFile{}, fmt.Errorf("algorithm name is required")
	}
	switch model.ExecutionMode(rf.Algorithm.Mode) {
	case "", model.ExecutionModeStream, model.ExecutionModeStats, model.ExecutionModeMutate, model.ExecutionModeWrite:
	default:
		return RunFile{}, fmt.Errorf("unknown mode %q", rf.Algorithm.Mode)
	}

	for i, rel := range h.Graph.Relationships {
		if len(rel) != 2 {
			return RunFile{}, fmt.Errorf("relationship %d must have a source and a target", i)
		}
		if rel[0] < 0 || rel[1] < 0 {
			return RunFile{}, fmt.Errorf("relationship %d has negative node ids", i)
		}
		rf.Graph.Relationships = append(rf.Graph.Relationships, [2]int64{rel[0], rel[1]})
	}

	for _, p := range h.Graph.Properties {
		if rf.Graph.Properties == nil {
			rf.Graph.Properties = map[string][]float64{}
		}
		if _, ok := rf.Graph.Properties[p.Key]; ok {
			return RunFile{}, fmt.Errorf("property %q is repeated", p.Key)
		}
		rf.Graph.Properties[p.Key] = p.Values
	}

	config, err := ctyConfig(h.Algorithm.Config)
	if err != nil {
		return RunFile{}, err
	}
	rf.Algorithm.Config = config

	return rf, nil
}

// ctyConfig converts the algorithm config object, only scalar parameters are
// allowed.
func ctyConfig(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return nil, fmt.Errorf("algorithm config must be an object")
	}

	config := map[string]any{}
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		key := k.AsString()
		if val.IsNull() {
			continue
		}

		switch val.Type() {
		case cty.String:
			config[key] = val.AsString()
		case cty.Bool:
			config[key] = val.True()
		case cty.Number:
			config[key] = ctyNumber(val.AsBigFloat())
		default:
			return nil, fmt.Errorf("config parameter %q must be a scalar", key)
		}
	}

	return config, nil
}

func ctyNumber(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	v, _ := f.Float64()
	return v
}
