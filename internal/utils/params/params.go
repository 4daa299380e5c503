package params

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var keyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs converts `key=value` specs into algorithm parameters. Values are
// decoded as YAML scalars so numbers and booleans keep their type, later specs
// override earlier ones.
func ParseSpecs(specs []string) (map[string]any, error) {
	params := make(map[string]any, len(specs))

	for _, spec := range specs {
		key, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q must be in key=value format", spec)
		}
		if !keyRegexp.MatchString(key) {
			return nil, fmt.Errorf("invalid parameter key %q", key)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for parameter %q: %w", key, err)
		}
		switch value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parameter %q must be a scalar", key)
		}

		params[key] = value
	}

	return params, nil
}

// Merge returns the base parameters with the override ones on top.
func Merge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}
