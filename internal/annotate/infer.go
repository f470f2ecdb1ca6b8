package annotate

import (
	"regexp"
	"strings"
)

// Field is one entry of a synthesized record type.
type Field struct {
	Name     string
	Type     string
	Optional bool
}

func (f Field) String() string {
	if f.Optional {
		return f.Name + "?: " + f.Type
	}
	return f.Name + ": " + f.Type
}

// DefaultTypeMap maps Zod constructor names to TypeScript types.
func DefaultTypeMap() map[string]string {
	return map[string]string{
		"string":   "string",
		"number":   "number",
		"boolean":  "boolean",
		"array":    "any[]",
		"object":   "Record<string, any>",
		"enum":     "string",
		"optional": "any",
	}
}

const fallbackType = "any"

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// parseParams splits a destructuring list ("a, b: renamed, c = 1") into the
// property names being destructured. Rest elements and anything that is not a
// plain identifier are dropped.
func parseParams(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		name := part
		if i := strings.IndexAny(name, ":="); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if !paramNamePattern.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// inferField looks up name's Zod marker in the inline schema text.
func inferField(name, schema string, typeMap map[string]string) Field {
	marker := regexp.MustCompile(`(?:^|[^\w$])` + regexp.QuoteMeta(name) + `\s*:\s*z\.(\w+)\s*\(`)
	loc := marker.FindStringSubmatchIndex(schema)
	if loc == nil {
		return Field{Name: name, Type: fallbackType}
	}

	ctor := schema[loc[2]:loc[3]]
	typ, ok := typeMap[ctor]
	if !ok {
		typ = fallbackType
	}

	// loc[1] sits just past the constructor's '('.
	return Field{
		Name:     name,
		Type:     typ,
		Optional: chainHas(schema, loc[1]-1, "optional"),
	}
}

// chainHas reports whether the call at s[open] is followed by a method chain
// (".describe(...).optional()") containing method.
func chainHas(s string, open int, method string) bool {
	end := matchParen(s, open)
	for end >= 0 {
		i := skipSpace(s, end+1)
		if i >= len(s) || s[i] != '.' {
			return false
		}
		start := skipSpace(s, i+1)
		stop := scanIdent(s, start)
		if stop == start {
			return false
		}
		ident := s[start:stop]
		p := skipSpace(s, stop)
		if p >= len(s) || s[p] != '(' {
			return false
		}
		if ident == method {
			return true
		}
		end = matchParen(s, p)
	}
	return false
}

// renderRecord formats fields as an inline object type: "{ a: string; b?: number }".
func renderRecord(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
