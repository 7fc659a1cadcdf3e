package loam

// AgentMetadata is the frontmatter of one agent document in a catalog directory.
// Documents may be markdown with YAML frontmatter, plain YAML or JSON.
type AgentMetadata struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
	Cost *int   `json:"cost,omitempty" mapstructure:"cost"`

	Inputs  []SignatureMetadata `json:"inputs" mapstructure:"inputs"`
	Outputs []SignatureMetadata `json:"outputs" mapstructure:"outputs"`

	// Disabled agents are listed but left out of the catalog.
	Disabled bool `json:"disabled" mapstructure:"disabled"`
}

// SignatureMetadata is either a typed parameter (name, type) or a constraint
// (constraint, variables, evaluate).
type SignatureMetadata struct {
	Name string `json:"name" mapstructure:"name"`
	Type string `json:"type" mapstructure:"type"`

	Constraint string              `json:"constraint" mapstructure:"constraint"`
	Variables  []SignatureMetadata `json:"variables" mapstructure:"variables"`
	// Evaluate is the truth value the constraint takes; a bool or "true"/"false". Defaults to true.
	Evaluate any `json:"evaluate" mapstructure:"evaluate"`
}

func (s SignatureMetadata) isConstraint() bool {
	return s.Constraint != ""
}
