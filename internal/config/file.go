package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML document at path onto target. Keys absent from
// the file keep target's current values, so callers pass a populated default.
func LoadFile(path string, target Experiment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
