package domain

// Fixer is a single source-to-source rewrite (addtool, types, ...).
// Fix must be pure: the same input always yields the same Result.
type Fixer interface {
	Name() string
	Description() string
	Fix(content string) Result
}

// Result is the outcome of running a Fixer over one file's content.
type Result struct {
	Content string
	Changes int // sites rewritten or annotated
	Skipped int // candidate sites left untouched because they could not be parsed
}

// Changed reports whether the fixer produced different text.
func (r Result) Changed(original string) bool {
	return r.Content != original
}
