// Package addtool rewrites object-style tool registrations
//
//	this.addTool({ name: 'x', description: 'y', inputSchema: XSchema, handler: async (args) => {...} });
//
// into positional registerTool calls with the handler wrapped in createToolHandler.
// Matching is regex based and tolerates exactly one level of nested braces inside
// the argument object; anything it cannot fully parse is left as is.
package addtool

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"tsfix/internal/domain"
)

// Options configures the call shapes the rewriter looks for and emits.
type Options struct {
	Receiver  string // "this"
	OldMethod string // "addTool"
	NewMethod string // "registerTool"
	Wrapper   string // "createToolHandler"
	Indent    string // leading indentation of the emitted call
}

func DefaultOptions() Options {
	return Options{
		Receiver:  "this",
		OldMethod: "addTool",
		NewMethod: "registerTool",
		Wrapper:   "createToolHandler",
		Indent:    "    ",
	}
}

var (
	namePattern    = regexp.MustCompile("\\bname:\\s*['\"`]([^'\"`]+)['\"`]")
	descPattern    = regexp.MustCompile("\\bdescription:\\s*['\"`]([^'\"`]+)['\"`]")
	schemaPattern  = regexp.MustCompile(`\binputSchema:\s*(\w+)`)
	handlerPattern = regexp.MustCompile(`(?s)\bhandler:\s*(async\s*\([^)]*\)\s*=>\s*\{.*)`)
)

// Rewriter implements domain.Fixer for the addTool → registerTool migration.
type Rewriter struct {
	opts  Options
	block *regexp.Regexp
}

var _ domain.Fixer = (*Rewriter)(nil)

func New(opts Options) *Rewriter {
	def := DefaultOptions()
	if opts.Receiver == "" {
		opts.Receiver = def.Receiver
	}
	if opts.OldMethod == "" {
		opts.OldMethod = def.OldMethod
	}
	if opts.NewMethod == "" {
		opts.NewMethod = def.NewMethod
	}
	if opts.Wrapper == "" {
		opts.Wrapper = def.Wrapper
	}
	// Indent may be empty.

	call := regexp.QuoteMeta(opts.Receiver + "." + opts.OldMethod)
	return &Rewriter{
		opts:  opts,
		block: regexp.MustCompile(call + `\(\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}\);`),
	}
}

func (r *Rewriter) Name() string { return "addtool" }

func (r *Rewriter) Description() string {
	return fmt.Sprintf("rewrite %s.%s({...}) blocks into %s.%s(name, description, schema, %s(handler))",
		r.opts.Receiver, r.opts.OldMethod, r.opts.Receiver, r.opts.NewMethod, r.opts.Wrapper)
}

// Fix rewrites every parsable block. Unparsable blocks are copied verbatim.
func (r *Rewriter) Fix(content string) domain.Result {
	var res domain.Result
	res.Content = r.block.ReplaceAllStringFunc(content, func(match string) string {
		groups := r.block.FindStringSubmatch(match)
		if len(groups) < 2 {
			res.Skipped++
			return match
		}
		reg, ok := parseBlock(strings.TrimSpace(groups[1]))
		if !ok {
			res.Skipped++
			return match
		}
		res.Changes++
		return r.render(reg)
	})
	return res
}

// registration holds the fragments pulled out of one addTool block.
type registration struct {
	name        string
	description string
	schema      string
	handler     string
}

func parseBlock(body string) (registration, bool) {
	name := namePattern.FindStringSubmatch(body)
	desc := descPattern.FindStringSubmatch(body)
	schema := schemaPattern.FindStringSubmatch(body)
	if name == nil || desc == nil || schema == nil {
		return registration{}, false
	}

	handler := handlerPattern.FindStringSubmatch(body)
	if handler == nil {
		return registration{}, false
	}

	return registration{
		name:        name[1],
		description: desc[1],
		schema:      schema[1],
		handler:     strings.TrimRight(strings.TrimRightFunc(handler[1], unicode.IsSpace), ","),
	}, true
}

func (r *Rewriter) render(reg registration) string {
	inner := r.opts.Indent + "  "
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s.%s(\n", r.opts.Indent, r.opts.Receiver, r.opts.NewMethod)
	fmt.Fprintf(&sb, "%s'%s',\n", inner, reg.name)
	fmt.Fprintf(&sb, "%s'%s',\n", inner, reg.description)
	fmt.Fprintf(&sb, "%s%s,\n", inner, reg.schema)
	fmt.Fprintf(&sb, "%s%s(%s)\n", inner, r.opts.Wrapper, reg.handler)
	fmt.Fprintf(&sb, "%s)", r.opts.Indent)
	return sb.String()
}
