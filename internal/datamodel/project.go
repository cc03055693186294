package datamodel

// SchemaVersion identifies this module's in-memory Project shape.
const SchemaVersion = "simlin.project/v1"

// Model is a named, self-contained set of variables and dimensions. A
// Project may reference the same Model by name from multiple Module
// variables, each with a distinct binding set (monomorphization).
type Model struct {
	Name       string      `yaml:"name"`
	Variables  []Variable  `yaml:"variables"`
	Dimensions []Dimension `yaml:"dimensions,omitempty"`
}

// AIInfo is an opaque-to-the-core block a Project may carry; only an
// external AI-metadata-signature-verification collaborator interprets it.
type AIInfo struct {
	Provenance string            `yaml:"provenance,omitempty"`
	Extra      map[string]string `yaml:"extra,omitempty"`
}

// Project is the full declarative description the core compiles.
type Project struct {
	SchemaVersion string    `yaml:"schema_version"`
	Name          string    `yaml:"name"`
	Sim           SimSpecs  `yaml:"sim"`
	Models        []Model   `yaml:"models"`
	AIInfo        *AIInfo   `yaml:"ai_info,omitempty"`
}

// ModelByName returns the named model and true, or the zero Model and
// false if no model in the Project has that name.
func (p *Project) ModelByName(name string) (Model, bool) {
	for _, m := range p.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// RootModel returns the project's entry-point model: the one named "main",
// or the sole model when there is exactly one.
func (p *Project) RootModel() (Model, bool) {
	if m, ok := p.ModelByName("main"); ok {
		return m, true
	}
	if len(p.Models) == 1 {
		return p.Models[0], true
	}
	return Model{}, false
}
