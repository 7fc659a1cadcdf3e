package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Argument placeholders replaced with file paths before the planner is started.
const (
	PlaceholderDomain  = "{domain}"
	PlaceholderProblem = "{problem}"
	PlaceholderPlan    = "{plan}"
)

// PlannerConfig describes how to invoke a local planner executable.
// When any argument mentions {plan}, the plan is read from that file after the
// process exits; otherwise stdout is the plan.
type PlannerConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Timeout     time.Duration     `yaml:"timeout" json:"timeout"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of planners.yaml
type ConfigFile struct {
	Planners []PlannerConfig `yaml:"planners" json:"planners"`
}

// LoadPlanners reads a configuration file (YAML or JSON) and returns a map of planner names to configs.
// A missing file yields an empty map.
func LoadPlanners(path string) (map[string]PlannerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]PlannerConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read planners config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse planners.json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse planners.yaml: %w", err)
		}
	}

	planners := make(map[string]PlannerConfig)
	for _, p := range cfg.Planners {
		if p.Name == "" || p.Command == "" {
			continue
		}
		planners[p.Name] = p
	}

	return planners, nil
}

func (c PlannerConfig) usesPlanFile() bool {
	for _, a := range c.Args {
		if strings.Contains(a, PlaceholderPlan) {
			return true
		}
	}
	return false
}
