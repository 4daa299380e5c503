package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/galgo/internal/model"
)

func TestRunFileHCLRepository_GetRunConfig(t *testing.T) {
	tests := map[string]struct {
		data   string
		expCfg model.RunConfig
		expErr bool
		errMsg string
	}{
		"Valid run file should load successfully": {
			data: `
graph "web" {
  node_count    = 4
  relationships = [[1, 0], [2, 0]]

  property "seed" {
    values = [1, 2, 3, 4]
  }
}

algorithm "PageRank" {
  mode     = "stats"
  username = "alice"
  job_id   = "job-1"
  config = {
    dampingFactor = 0.9
    maxIterations = 10
    sourceNodes   = null
  }
}
`,
			expCfg: model.RunConfig{
				Graph: model.GraphSource{
					Name:          "web",
					NodeCount:     4,
					Relationships: [][2]int64{{1, 0}, {2, 0}},
					Properties:    map[string][]float64{"seed": {1, 2, 3, 4}},
				},
				Algorithm: "PageRank",
				Mode:      model.ExecutionModeStats,
				Username:  "alice",
				JobID:     "job-1",
				Config:    map[string]any{"dampingFactor": 0.9, "maxIterations": int64(10)},
			},
		},

		"Missing defaults should be set": {
			data: `
graph "web" {
  relationships = [[0, 5]]
}
algorithm "Degree" {}
`,
			expCfg: model.RunConfig{
				Graph: model.GraphSource{
					Name:          "web",
					NodeCount:     6,
					Relationships: [][2]int64{{0, 5}},
				},
				Algorithm: "Degree",
				Mode:      model.ExecutionModeStream,
				Config:    map[string]any{},
			},
		},

		"Invalid HCL should fail": {
			data:   `graph "web" {`,
			expErr: true,
			errMsg: "invalid run file",
		},

		"Unknown attributes should fail": {
			data: `
graph "web" {}
algorithm "Degree" {
  threads = 4
}
`,
			expErr: true,
			errMsg: "invalid run file",
		},

		"Missing algorithm should fail": {
			data:   `graph "web" {}`,
			expErr: true,
			errMsg: "invalid run file",
		},

		"Unknown modes should fail": {
			data: `
graph "web" {}
algorithm "Degree" {
  mode = "train"
}
`,
			expErr: true,
			errMsg: `unknown mode "train"`,
		},

		"Relationships without target should fail": {
			data: `
graph "web" {
  relationships = [[0]]
}
algorithm "Degree" {}
`,
			expErr: true,
			errMsg: "must have a source and a target",
		},

		"Negative node ids should fail": {
			data: `
graph "web" {
  relationships = [[-1, 0]]
}
algorithm "Degree" {}
`,
			expErr: true,
			errMsg: "negative node ids",
		},

		"Repeated properties should fail": {
			data: `
graph "web" {
  node_count = 1
  property "seed" {
    values = [1]
  }
  property "seed" {
    values = [2]
  }
}
algorithm "Degree" {}
`,
			expErr: true,
			errMsg: `property "seed" is repeated`,
		},

		"Non scalar parameters should fail": {
			data: `
graph "web" {}
algorithm "Degree" {
  config = {
    nodes = [1, 2]
  }
}
`,
			expErr: true,
			errMsg: `"nodes" must be a scalar`,
		},

		"Relationships out of the declared nodes should fail": {
			data: `
graph "web" {
  node_count    = 2
  relationships = [[0, 2]]
}
algorithm "Degree" {}
`,
			expErr: true,
			errMsg: "out of the 2 nodes",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fs := fstest.MapFS{"run.hcl": &fstest.MapFile{Data: []byte(test.data)}}

			repo := NewRunFileHCLRepository(fs)
			cfg, err := repo.GetRunConfig(context.Background(), "run.hcl")

			if test.expErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrNotValid)
				assert.Contains(t, err.Error(), test.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expCfg, cfg)
		})
	}
}

func TestRunFileRepository_GetRunConfig(t *testing.T) {
	fs := fstest.MapFS{
		"run.yaml": &fstest.MapFile{Data: []byte("graph:\n  name: from-yaml\nalgorithm:\n  name: Degree\n")},
		"run.HCL":  &fstest.MapFile{Data: []byte("graph \"from-hcl\" {}\nalgorithm \"Degree\" {}\n")},
	}
	repo := NewRunFileRepository(fs)

	cfg, err := repo.GetRunConfig(context.Background(), "run.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Graph.Name)

	cfg, err = repo.GetRunConfig(context.Background(), "run.HCL")
	require.NoError(t, err)
	assert.Equal(t, "from-hcl", cfg.Graph.Name)
}
