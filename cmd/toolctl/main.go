// Toolctl is a terminal browser for adapter catalogs: list services,
// inspect operations and export catalog docs as Markdown, without
// running the dispatch server.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/adapter/brave"
	"github.com/smallnest/toolgate/adapter/linear"
	"github.com/smallnest/toolgate/adapter/slack"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential/memory"
	"github.com/smallnest/toolgate/docs"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	opStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	requiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flagStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("178"))
)

func main() {
	flag.Usage = usage
	flag.Parse()

	registry, err := buildRegistry()
	if err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "services":
		for _, s := range registry.Services() {
			a, _ := registry.Get(s)
			fmt.Printf("%s  %s\n", titleStyle.Render(s), dimStyle.Render(a.Catalog().DisplayName))
		}
	case "catalog":
		requireArgs(args, 2, "catalog <service>")
		a := mustGet(registry, args[1])
		printCatalog(a.Catalog())
	case "help":
		requireArgs(args, 3, "help <service> <operation>")
		a := mustGet(registry, args[1])
		op, err := a.OperationHelp(args[2])
		if err != nil {
			fatal(err)
		}
		printOperation(op, true)
	case "markdown":
		requireArgs(args, 2, "markdown <service>")
		a := mustGet(registry, args[1])
		fmt.Print(docs.Markdown(a.Catalog()))
	default:
		usage()
		os.Exit(2)
	}
}

// buildRegistry assembles the adapters with an empty in-memory
// resolver. Catalogs are static so no credentials are needed to
// browse them.
func buildRegistry() (*adapter.Registry, error) {
	resolver := memory.NewResolver()
	registry := adapter.NewRegistry()

	for _, build := range []func() (adapter.Adapter, error){
		func() (adapter.Adapter, error) { return slack.New(resolver) },
		func() (adapter.Adapter, error) { return linear.New(resolver) },
		func() (adapter.Adapter, error) { return brave.New(resolver) },
	} {
		a, err := build()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func printCatalog(cat *catalog.Catalog) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%s)", cat.DisplayName, cat.Service)))
	if cat.DocsURL != "" {
		fmt.Println(dimStyle.Render("docs: " + cat.DocsURL))
	}
	if len(cat.Common) > 0 {
		fmt.Println(dimStyle.Render("common: " + strings.Join(cat.Common, ", ")))
	}
	fmt.Println()
	for _, op := range cat.Operations {
		printOperation(op, false)
	}
}

func printOperation(op catalog.Operation, verbose bool) {
	line := opStyle.Render(op.Name)
	if flags := riskFlags(op); flags != "" {
		line += "  " + flagStyle.Render(flags)
	}
	fmt.Println(line)
	fmt.Println("  " + op.Description)

	for _, p := range op.Params {
		name := p.Name
		if p.Required {
			name = requiredStyle.Render(name + "*")
		}
		fmt.Printf("    %s %s  %s\n", name, dimStyle.Render(p.Type), p.Description)
		if verbose && p.Example != "" {
			fmt.Println(dimStyle.Render("      e.g. " + p.Example))
		}
	}
	if verbose && op.Returns != "" {
		fmt.Println(dimStyle.Render("  returns: " + op.Returns))
	}
	fmt.Println()
}

func riskFlags(op catalog.Operation) string {
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
	return strings.Join(flags, ", ")
}

func mustGet(registry *adapter.Registry, service string) adapter.Adapter {
	a, err := registry.Get(service)
	if err != nil {
		fatal(err)
	}
	return a
}

func requireArgs(args []string, n int, form string) {
	if len(args) < n {
		fatal(fmt.Errorf("usage: toolctl %s", form))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, requiredStyle.Render("error: ")+err.Error())
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `toolctl browses adapter operation catalogs.

Usage:
  toolctl services                     list registered services
  toolctl catalog <service>            show a service's operations
  toolctl help <service> <operation>   show one operation in detail
  toolctl markdown <service>           export the catalog as Markdown
`)
}
