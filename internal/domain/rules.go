package domain

// RulePack is a YAML file that extends the Zod-to-TypeScript type map used by
// the type annotator.
type RulePack struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Types       map[string]string `json:"types" yaml:"types"`
	Source      string            `json:"source,omitempty" yaml:"-"`
}
