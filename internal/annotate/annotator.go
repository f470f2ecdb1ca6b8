// Package annotate back-fills generic type parameters on
//
//	this.registerTool('name', 'description', schema, createToolHandler(async (...) => ...))
//
// call sites. A bare schema identifier declared in the same file gets
// z.infer<typeof Schema>. An inline z.object(...) gets a record type inferred
// from the handler's destructured parameters.
package annotate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tsfix/internal/domain"
)

const (
	PlaceWrapper  = "wrapper"  // createToolHandler<T>(...)
	PlaceArgument = "argument" // Schema<T>, createToolHandler(...)
)

type Options struct {
	Receiver        string
	Method          string
	Wrapper         string
	SchemaSuffix    string
	Placement       string
	AnnotatedWindow int // chars after the wrapper name searched for an existing '<'
	HandlerWindow   int // chars after the wrapper's '(' searched for the destructuring list
	TypeMap         map[string]string
}

func DefaultOptions() Options {
	return Options{
		Receiver:        "this",
		Method:          "registerTool",
		Wrapper:         "createToolHandler",
		SchemaSuffix:    "Schema",
		Placement:       PlaceWrapper,
		AnnotatedWindow: 10,
		HandlerWindow:   200,
		TypeMap:         DefaultTypeMap(),
	}
}

// Annotator implements domain.Fixer for the createToolHandler type back-fill.
type Annotator struct {
	opts    Options
	call    *regexp.Regexp
	wrapper *regexp.Regexp
	decl    *regexp.Regexp
	handler *regexp.Regexp
}

var _ domain.Fixer = (*Annotator)(nil)

var inlineSchemaPattern = regexp.MustCompile(`^z\.object\s*\(`)

func New(opts Options) *Annotator {
	def := DefaultOptions()
	if opts.Receiver == "" {
		opts.Receiver = def.Receiver
	}
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.Wrapper == "" {
		opts.Wrapper = def.Wrapper
	}
	if opts.SchemaSuffix == "" {
		opts.SchemaSuffix = def.SchemaSuffix
	}
	if opts.Placement == "" {
		opts.Placement = def.Placement
	}
	if opts.AnnotatedWindow <= 0 {
		opts.AnnotatedWindow = def.AnnotatedWindow
	}
	if opts.HandlerWindow <= 0 {
		opts.HandlerWindow = def.HandlerWindow
	}
	if opts.TypeMap == nil {
		opts.TypeMap = def.TypeMap
	}

	return &Annotator{
		opts:    opts,
		call:    regexp.MustCompile(regexp.QuoteMeta(opts.Receiver+"."+opts.Method) + `\s*\(\s*['"][^'"]+['"]\s*,\s*['"][^'"]+['"]\s*,\s*`),
		wrapper: regexp.MustCompile(`^\s*,\s*` + regexp.QuoteMeta(opts.Wrapper) + `\b`),
		decl:    schemaDeclPattern(opts.SchemaSuffix),
		handler: regexp.MustCompile(`^\s*async\s*\(\s*\{([^}]+)\}`),
	}
}

func (a *Annotator) Name() string { return "types" }

func (a *Annotator) Description() string {
	return fmt.Sprintf("add generic type parameters to %s.%s(..., %s(...)) calls",
		a.opts.Receiver, a.opts.Method, a.opts.Wrapper)
}

// Fix runs the named-schema pass and then the inline-schema pass over its output.
func (a *Annotator) Fix(content string) domain.Result {
	res := domain.Result{Content: content}
	schemas := extractSchemas(a.decl, content)

	res.Content = a.namedPass(res.Content, schemas, &res)
	res.Content = a.inlinePass(res.Content, &res)
	return res
}

// callSite is a registration call whose third argument and wrapper were located.
type callSite struct {
	argStart, argEnd int  // third argument
	wrapperEnd       int  // just past the wrapper identifier
	open             int  // the wrapper's '(' or -1 when already annotated
	inline           bool // third argument is z.object(...)
}

func (s callSite) annotated() bool { return s.open < 0 }

func (a *Annotator) findSites(content string) []callSite {
	var sites []callSite
	for _, loc := range a.call.FindAllStringIndex(content, -1) {
		site, ok := a.parseSite(content, loc[1])
		if ok {
			sites = append(sites, site)
		}
	}
	return sites
}

func (a *Annotator) parseSite(content string, argStart int) (callSite, bool) {
	site := callSite{argStart: argStart}
	rest := content[argStart:]

	if m := inlineSchemaPattern.FindStringIndex(rest); m != nil {
		closeIdx := matchParen(content, argStart+m[1]-1)
		if closeIdx < 0 {
			return callSite{}, false
		}
		site.argEnd = closeIdx + 1
		site.inline = true
	} else {
		end := scanIdent(content, argStart)
		if end == argStart || !strings.HasSuffix(content[argStart:end], a.opts.SchemaSuffix) {
			return callSite{}, false
		}
		site.argEnd = end
	}

	w := a.wrapper.FindStringIndex(content[site.argEnd:])
	if w == nil {
		return callSite{}, false
	}
	site.wrapperEnd = site.argEnd + w[1]

	limit := min(len(content), site.wrapperEnd+a.opts.AnnotatedWindow)
	next := skipSpace(content[:limit], site.wrapperEnd)
	if next >= limit {
		return callSite{}, false
	}
	switch content[next] {
	case '<':
		site.open = -1
	case '(':
		site.open = next
	default:
		return callSite{}, false
	}
	return site, true
}

// edit is an insertion of text at pos.
type edit struct {
	pos  int
	text string
}

func (a *Annotator) insertAt(site callSite) int {
	if a.opts.Placement == PlaceArgument {
		return site.argEnd
	}
	return site.wrapperEnd
}

func (a *Annotator) namedPass(content string, schemas Schemas, res *domain.Result) string {
	var edits []edit
	for _, site := range a.findSites(content) {
		if site.inline || site.annotated() {
			continue
		}
		name := content[site.argStart:site.argEnd]
		if _, ok := schemas[name]; !ok {
			res.Skipped++
			continue
		}
		edits = append(edits, edit{pos: a.insertAt(site), text: "<z.infer<typeof " + name + ">>"})
	}
	res.Changes += len(edits)
	return applyEdits(content, edits)
}

func (a *Annotator) inlinePass(content string, res *domain.Result) string {
	var edits []edit
	for _, site := range a.findSites(content) {
		if !site.inline || site.annotated() {
			continue
		}
		record, ok := a.inferRecord(content, site)
		if !ok {
			res.Skipped++
			continue
		}
		edits = append(edits, edit{pos: a.insertAt(site), text: "<" + record + ">"})
	}
	res.Changes += len(edits)
	return applyEdits(content, edits)
}

// inferRecord builds the record type for an inline-schema site from the
// handler's destructured parameters. Destructuring lists that do not start
// within HandlerWindow characters are not found.
func (a *Annotator) inferRecord(content string, site callSite) (string, bool) {
	start := site.open + 1
	window := content[start:min(len(content), start+a.opts.HandlerWindow)]
	m := a.handler.FindStringSubmatch(window)
	if m == nil {
		return "", false
	}

	params := parseParams(m[1])
	if len(params) == 0 {
		return "", false
	}

	schema := content[site.argStart:site.argEnd]
	fields := make([]Field, len(params))
	for i, p := range params {
		fields[i] = inferField(p, schema, a.opts.TypeMap)
	}
	return renderRecord(fields), true
}

func applyEdits(content string, edits []edit) string {
	if len(edits) == 0 {
		return content
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].pos < edits[j].pos })

	var sb strings.Builder
	sb.Grow(len(content) + 64*len(edits))
	last := 0
	for _, e := range edits {
		sb.WriteString(content[last:e.pos])
		sb.WriteString(e.text)
		last = e.pos
	}
	sb.WriteString(content[last:])
	return sb.String()
}
