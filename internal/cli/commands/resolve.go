package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/nlstn/go-edm"
	"github.com/spf13/cobra"
)

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <model.yaml> <name>",
		Short: "Resolve an alias-qualified name to its canonical form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p, err := a.loadFiles(cmd.Context(), args[:1])
			if err != nil {
				return reportInvalid(out, err)
			}

			name, ok, err := p.Resolve(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("'%s': unknown namespace or alias", args[1])
			}

			element := describeElement(p, name)
			if element == "" {
				color.New(color.FgYellow).Fprintf(out, "%s -> %s (no such element)\n", args[1], name)
				return nil
			}
			fmt.Fprintf(out, "%s -> %s (%s)\n", args[1], name, element)
			return nil
		},
	}
}

// describeElement names what a canonical qualified name denotes, or returns
// "" when the model declares nothing under it.
func describeElement(p *edm.Provider, name edm.FullQualifiedName) string {
	if kind := p.TypeKind(name); kind != edm.KindNone {
		return kind.String()
	}
	if _, ok := p.Term(name); ok {
		return "Term"
	}

	var parts []string
	if actions := p.Actions(name); len(actions) > 0 {
		parts = append(parts, fmt.Sprintf("Action, %d overloads", len(actions)))
	}
	if functions := p.Functions(name); len(functions) > 0 {
		parts = append(parts, fmt.Sprintf("Function, %d overloads", len(functions)))
	}
	if c, ok, _ := p.EntityContainer(name.String()); ok && c.Name == name {
		parts = append(parts, "EntityContainer")
	}
	return strings.Join(parts, "; ")
}
