package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FlowDocument is the serialized form of a flow (YAML, JSON or a generic map).
type FlowDocument struct {
	Name          string               `json:"name" yaml:"name" mapstructure:"name"`
	Operators     []OperatorDefinition `json:"operators,omitempty" yaml:"operators,omitempty" mapstructure:"operators"`
	Types         []TypeNode           `json:"types,omitempty" yaml:"types,omitempty" mapstructure:"types"`
	MemoryItems   []MemoryItem         `json:"memory_items,omitempty" yaml:"memory_items,omitempty" mapstructure:"memory_items"`
	Constraints   []Constraint         `json:"constraints,omitempty" yaml:"constraints,omitempty" mapstructure:"constraints"`
	PartialOrders []PartialOrder       `json:"partial_orders,omitempty" yaml:"partial_orders,omitempty" mapstructure:"partial_orders"`
	Mappings      []MappingItem        `json:"mappings,omitempty" yaml:"mappings,omitempty" mapstructure:"mappings"`
	Goals         []GoalGroupDocument  `json:"goals,omitempty" yaml:"goals,omitempty" mapstructure:"goals"`
	StartsWith    string               `json:"starts_with,omitempty" yaml:"starts_with,omitempty" mapstructure:"starts_with"`
	EndsWith      string               `json:"ends_with,omitempty" yaml:"ends_with,omitempty" mapstructure:"ends_with"`
}

// GoalDocument is one serialized goal component. Exactly one field must be set.
type GoalDocument struct {
	Operator   string      `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator"`
	Object     string      `json:"object,omitempty" yaml:"object,omitempty" mapstructure:"object"`
	Constraint *Constraint `json:"constraint,omitempty" yaml:"constraint,omitempty" mapstructure:"constraint"`
}

// GoalGroupDocument is a goal group: either a single inline component or a list of items.
type GoalGroupDocument struct {
	GoalDocument `yaml:",inline" mapstructure:",squash"`
	Items        []GoalDocument `json:"items,omitempty" yaml:"items,omitempty" mapstructure:"items"`
}

func (g GoalDocument) empty() bool {
	return g.Operator == "" && g.Object == "" && g.Constraint == nil
}

func (g GoalDocument) component() (GoalComponent, error) {
	set := 0
	var out GoalComponent
	if g.Operator != "" {
		set++
		out = OperatorGoal(g.Operator)
	}
	if g.Object != "" {
		set++
		out = ObjectGoal(g.Object)
	}
	if g.Constraint != nil {
		set++
		out = *g.Constraint
	}
	if set != 1 {
		return nil, fmt.Errorf("goal must name exactly one of operator, object or constraint")
	}
	return out, nil
}

// Definition builds a FlowDefinition through the additive operations.
func (d FlowDocument) Definition() (*FlowDefinition, error) {
	flow := NewFlowDefinition(d.Name)
	for _, t := range d.Types {
		flow.AddType(t)
	}
	flow.AddMemoryItem(d.MemoryItems...)
	flow.AddOperator(d.Operators...)
	flow.AddConstraint(d.Constraints...)
	flow.AddPartialOrder(d.PartialOrders...)
	flow.AddMapping(d.Mappings...)

	for i, group := range d.Goals {
		var items GoalItems
		docs := group.Items
		if !group.GoalDocument.empty() {
			docs = append([]GoalDocument{group.GoalDocument}, docs...)
		}
		if len(docs) == 0 {
			return nil, fmt.Errorf("goal group %d is empty", i)
		}
		for _, doc := range docs {
			c, err := doc.component()
			if err != nil {
				return nil, fmt.Errorf("goal group %d: %w", i, err)
			}
			items.Goals = append(items.Goals, c)
		}
		flow.AddGoal(items)
	}

	// Anchors are checked by the validator, so undeclared names are kept as-is.
	flow.StartsWith = d.StartsWith
	flow.EndsWith = d.EndsWith
	return flow, nil
}

// FlowDefinitionFromMap builds a flow from a structured definition such as decoded JSON.
func FlowDefinitionFromMap(raw map[string]any) (*FlowDefinition, error) {
	var doc FlowDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode flow definition: %w", err)
	}
	return doc.Definition()
}

// ParseFlowDocument decodes a flow from YAML or JSON bytes. format is "json" or "yaml".
func ParseFlowDocument(data []byte, format string) (*FlowDefinition, error) {
	var doc FlowDocument
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse flow json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse flow yaml: %w", err)
		}
	}
	return doc.Definition()
}

// LoadFlowFile reads a flow document. Files ending in .json are parsed as JSON, anything else as YAML.
func LoadFlowFile(path string) (*FlowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	flow, err := ParseFlowDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if flow.Name == "" {
		flow.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return flow, nil
}
