package galgo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/galgo/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		return fmt.Errorf("galgo binary path is required (GALGO_INTEGRATION_BINARY)")
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("GALGO_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("galgo binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "GALGO_INTEGRATION"
		envBinary     = "GALGO_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunGalgoCmd runs a galgo command with a specific db path and without logs.
func RunGalgoCmd(ctx context.Context, config Config, dbPath, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --db-path %s %s", dbPath, cmdArgs)
	return testutils.RunGalgo(ctx, nil, config.Binary, args, true)
}

// RunRun runs the algorithm of a run file.
func RunRun(ctx context.Context, config Config, dbPath, runFile, extraArgs string) (stdout, stderr []byte, err error) {
	return RunGalgoCmd(ctx, config, dbPath, fmt.Sprintf("run --file %s --format json %s", runFile, extraArgs))
}

// RunEstimate estimates an algorithm in JSON format.
func RunEstimate(ctx context.Context, config Config, dbPath, extraArgs string) (stdout, stderr []byte, err error) {
	return RunGalgoCmd(ctx, config, dbPath, fmt.Sprintf("estimate --format json %s", extraArgs))
}

// RunHistory lists the journal events in JSON format.
func RunHistory(ctx context.Context, config Config, dbPath, extraArgs string) (stdout, stderr []byte, err error) {
	return RunGalgoCmd(ctx, config, dbPath, fmt.Sprintf("jobs history --format json %s", extraArgs))
}
