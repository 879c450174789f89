package scenario

import (
	"fmt"
	"os"

	"github.com/ashureev/feedback-coach/internal/domain"
	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk layout of a preset override file.
type presetFile struct {
	Scenarios []domain.Scenario `yaml:"scenarios"`
}

// ParsePresets decodes a YAML preset document. Difficulty values are
// normalized; entries with an unknown or non-concrete difficulty are dropped
// by Catalog.Replace because they fail the completeness check.
func ParsePresets(data []byte) ([]domain.Scenario, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for i := range f.Scenarios {
		if d, err := domain.ParseDifficulty(string(f.Scenarios[i].Difficulty)); err == nil {
			f.Scenarios[i].Difficulty = d
		}
	}
	return f.Scenarios, nil
}

// LoadFile reads presets from path and installs them.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read presets %s: %w", path, err)
	}
	presets, err := ParsePresets(data)
	if err != nil {
		return fmt.Errorf("parse presets %s: %w", path, err)
	}
	if err := c.Replace(presets); err != nil {
		return fmt.Errorf("install presets %s: %w", path, err)
	}
	c.logger.Info("Scenario presets loaded", "path", path, "count", len(c.Presets()))
	return nil
}
