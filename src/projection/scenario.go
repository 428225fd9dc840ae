package projection

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Scenario string

const (
	Baseline    Scenario = "baseline"
	Optimistic  Scenario = "optimistic"
	Pessimistic Scenario = "pessimistic"
)

// Scenarios is the order in which RunAll reports results.
var Scenarios = []Scenario{Baseline, Optimistic, Pessimistic}

// Adjustment shifts the plan's rates before a run. Offsets are fractions
// added to the plan's own rates (0.02 is two percentage points).
type Adjustment struct {
	ReturnOffset             float64 `yaml:"return_offset" json:"return_offset"`
	InflationOffset          float64 `yaml:"inflation_offset" json:"inflation_offset"`
	ContributionGrowthOffset float64 `yaml:"contribution_growth_offset" json:"contribution_growth_offset"`
}

// Presets maps each scenario to its rate adjustment.
type Presets map[Scenario]Adjustment

func DefaultPresets() Presets {
	return Presets{
		Baseline:    {},
		Optimistic:  {ReturnOffset: 0.02, InflationOffset: -0.005, ContributionGrowthOffset: 0.01},
		Pessimistic: {ReturnOffset: -0.02, InflationOffset: 0.01, ContributionGrowthOffset: -0.01},
	}
}

type presetsFile struct {
	Scenarios map[string]Adjustment `yaml:"scenarios"`
}

// LoadPresets reads scenario offsets from a YAML file. Scenarios missing from
// the file keep their defaults; unknown names are rejected.
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario presets: %w", err)
	}
	var f presetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario presets: %w", err)
	}

	presets := DefaultPresets()
	for name, adj := range f.Scenarios {
		s, err := ParseScenario(name)
		if err != nil {
			return nil, err
		}
		presets[s] = adj
	}
	return presets, nil
}

func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case Baseline, Optimistic, Pessimistic:
		return Scenario(s), nil
	case "":
		return Baseline, nil
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}
