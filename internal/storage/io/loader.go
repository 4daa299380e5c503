package io

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/slok/galgo/internal/model"
	schemafs "github.com/slok/galgo/internal/storage/io/schema"
)

const runSchemaFile = "run.schema.json"

var (
	runSchema   *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

func compileSchema() error {
	compileOnce.Do(func() {
		data, err := schemafs.FS.ReadFile(runSchemaFile)
		if err != nil {
			compileErr = fmt.Errorf("read run schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal run schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(runSchemaFile, doc); err != nil {
			compileErr = fmt.Errorf("add run schema resource: %w", err)
			return
		}

		runSchema, err = compiler.Compile(runSchemaFile)
		if err != nil {
			compileErr = fmt.Errorf("compile run schema: %w", err)
			return
		}
	})

	return compileErr
}

// RunFileYAMLRepository loads run files from YAML files.
type RunFileYAMLRepository struct {
	fs fs.FS
}

// NewRunFileYAMLRepository creates a new YAML run file repository.
func NewRunFileYAMLRepository(filesystem fs.FS) *RunFileYAMLRepository {
	return &RunFileYAMLRepository{fs: filesystem}
}

// GetRunConfig loads a run file from a YAML file and returns a validated domain model.
func (r *RunFileYAMLRepository) GetRunConfig(ctx context.Context, path string) (model.RunConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("reading run file: %w", err)
	}

	if ctx.Err() != nil {
		return model.RunConfig{}, ctx.Err()
	}

	if err := validateSchema(data); err != nil {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, err)
	}

	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return model.RunConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := rf.validate(); err != nil {
		return model.RunConfig{}, fmt.Errorf("invalid run file: %w: %w", model.ErrNotValid, err)
	}

	return rf.toModel(), nil
}

// validateSchema checks the YAML document against the run file JSON schema.
func validateSchema(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not convert YAML to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return runSchema.Validate(inst)
}

// RunFile represents the YAML structure of a run file.
type RunFile struct {
	Graph     GraphFile     `yaml:"graph"`
	Algorithm AlgorithmFile `yaml:"algorithm"`
}

// GraphFile represents the YAML structure of an inline graph.
type GraphFile struct {
	Name          string               `yaml:"name"`
	NodeCount     int64                `yaml:"nodeCount"`
	Relationships [][2]int64           `yaml:"relationships"`
	Properties    map[string][]float64 `yaml:"properties"`
}

// AlgorithmFile represents the YAML structure of the algorithm execution.
type AlgorithmFile struct {
	Name     string         `yaml:"name"`
	Mode     string         `yaml:"mode"`
	Username string         `yaml:"username"`
	JobID    string         `yaml:"jobId"`
	Config   map[string]any `yaml:"config"`
}

func (r RunFile) validate() error {
	nodes := r.Graph.nodeCount()
	for i, rel := range r.Graph.Relationships {
		if r.Graph.NodeCount > 0 && (rel[0] >= nodes || rel[1] >= nodes) {
			return fmt.Errorf("relationship %d (%d)->(%d) is out of the %d nodes", i, rel[0], rel[1], nodes)
		}
	}

	for key, values := range r.Graph.Properties {
		if int64(len(values)) != nodes {
			return fmt.Errorf("property %q has %d values, the graph has %d nodes", key, len(values), nodes)
		}
	}

	return nil
}

// nodeCount returns the declared node count or the one implied by the
// relationships.
func (g GraphFile) nodeCount() int64 {
	if g.NodeCount > 0 {
		return g.NodeCount
	}

	var n int64
	for _, rel := range g.Relationships {
		n = max(n, rel[0]+1, rel[1]+1)
	}
	return n
}

func (r RunFile) toModel() model.RunConfig {
	mode := model.ExecutionMode(r.Algorithm.Mode)
	if mode == "" {
		mode = model.ExecutionModeStream
	}

	config := r.Algorithm.Config
	if config == nil {
		config = map[string]any{}
	}

	return model.RunConfig{
		Graph: model.GraphSource{
			Name:          r.Graph.Name,
			NodeCount:     r.Graph.nodeCount(),
			Relationships: r.Graph.Relationships,
			Properties:    r.Graph.Properties,
		},
		Algorithm: r.Algorithm.Name,
		Mode:      mode,
		Username:  r.Algorithm.Username,
		JobID:     model.JobID(r.Algorithm.JobID),
		Config:    config,
	}
}
