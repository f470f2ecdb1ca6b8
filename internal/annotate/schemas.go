package annotate

import "regexp"

// Schemas maps a declared schema name to the raw text of its field list.
type Schemas map[string]string

func schemaDeclPattern(suffix string) *regexp.Regexp {
	return regexp.MustCompile(`const\s+(\w+` + regexp.QuoteMeta(suffix) + `)\s*=\s*z\.object\s*\(\s*\{([^}]+)\}`)
}

// ExtractSchemas collects every "const <Name><suffix> = z.object({ ... })"
// declaration. The body stops at the first '}', so nested objects are truncated;
// only the keys of Schemas are relied on.
func ExtractSchemas(content, suffix string) Schemas {
	return extractSchemas(schemaDeclPattern(suffix), content)
}

func extractSchemas(re *regexp.Regexp, content string) Schemas {
	schemas := make(Schemas)
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		schemas[m[1]] = m[2]
	}
	return schemas
}
