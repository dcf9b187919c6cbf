// Package docs renders operation catalogs as Markdown and sanitized
// HTML for the documentation endpoint.
package docs

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/toolgate/catalog"
)

// Markdown renders one catalog as a Markdown document: a heading, the
// common-operations shortlist, then one section per operation with its
// parameter table and risk annotations.
func Markdown(cat *catalog.Catalog) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s (`%s`)\n\n", cat.DisplayName, cat.Service)
	if cat.DocsURL != "" {
		fmt.Fprintf(&sb, "Provider docs: <%s>\n\n", cat.DocsURL)
	}
	if len(cat.Common) > 0 {
		fmt.Fprintf(&sb, "Common operations: %s\n\n", strings.Join(codeList(cat.Common), ", "))
	}

	for _, op := range cat.Operations {
		writeOperation(&sb, op)
	}
	return sb.String()
}

// OperationMarkdown renders a single operation section, for the
// per-operation help endpoint.
func OperationMarkdown(op catalog.Operation) string {
	var sb strings.Builder
	writeOperation(&sb, op)
	return sb.String()
}

func writeOperation(sb *strings.Builder, op catalog.Operation) {
	fmt.Fprintf(sb, "## `%s`\n\n%s\n\n", op.Name, op.Description)

	if flags := riskFlags(op); len(flags) > 0 {
		fmt.Fprintf(sb, "*%s*\n\n", strings.Join(flags, ", "))
	}

	if len(op.Params) > 0 {
		sb.WriteString("| Parameter | Type | Required | Description |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, p := range op.Params {
			required := ""
			if p.Required {
				required = "yes"
			}
			desc := p.Description
			if p.Example != "" {
				desc += fmt.Sprintf(" (e.g. `%s`)", p.Example)
			}
			fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", p.Name, p.Type, required, desc)
		}
		sb.WriteString("\n")
	}

	if op.Returns != "" {
		fmt.Fprintf(sb, "Returns: %s\n\n", op.Returns)
	}
}

func riskFlags(op catalog.Operation) []string {
	var flags []string
	if op.ReadOnly {
		flags = append(flags, "read-only")
	}
	if op.Destructive {
		flags = append(flags, "destructive")
	}
	if op.Idempotent {
		flags = append(flags, "idempotent")
	}
	return flags
}

func codeList(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "`" + n + "`"
	}
	return out
}

// HTML renders the catalog's Markdown as sanitized HTML. Catalog text
// comes from adapter authors, not end users, but descriptions flow to
// browsers so the output is sanitized anyway.
func HTML(cat *catalog.Catalog) []byte {
	return renderHTML(Markdown(cat))
}

func renderHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	out := markdown.Render(doc, renderer)

	return bluemonday.UGCPolicy().SanitizeBytes(out)
}
