package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nlstn/go-edm"
	"github.com/spf13/cobra"
)

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <model.yaml> <type>",
		Short: "Describe a type with its inherited members",
		Long: `Describe prints the kind, base types, key, effective properties and
navigation properties, and direct subtypes of a type. The type may be
qualified by namespace or alias.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadFiles(cmd.Context(), args[:1])
			if err != nil {
				return reportInvalid(cmd.OutOrStdout(), err)
			}

			name, ok, err := p.Resolve(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("'%s': unknown namespace or alias", args[1])
			}
			kind := p.TypeKind(name)
			if kind == edm.KindNone {
				return fmt.Errorf("'%s' is not a type in the model", name)
			}

			describeType(cmd.OutOrStdout(), p, name, kind)
			return nil
		},
	}
}

func describeType(out io.Writer, p *edm.Provider, name edm.FullQualifiedName, kind edm.TypeKind) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Bold)

	heading.Fprintf(out, "%s (%s)\n", name, kind)

	switch kind {
	case edm.KindEnum:
		enum, _ := p.EnumType(name)
		fmt.Fprintf(out, "  underlying type: %s\n", enum.UnderlyingType)
		if enum.IsFlags {
			fmt.Fprintln(out, "  flags: true")
		}
		label.Fprintln(out, "  members:")
		for _, m := range enum.Members {
			fmt.Fprintf(out, "    %s = %d\n", m.Name, m.Value)
		}
		return
	case edm.KindTypeDefinition:
		def, _ := p.TypeDefinition(name)
		fmt.Fprintf(out, "  underlying type: %s\n", def.UnderlyingType)
		if def.MaxLength != nil {
			fmt.Fprintf(out, "  max length: %d\n", *def.MaxLength)
		}
		return
	case edm.KindPrimitive:
		return
	}

	if chain := p.BaseTypeChain(name); len(chain) > 1 {
		bases := make([]string, 0, len(chain)-1)
		for _, base := range chain[1:] {
			bases = append(bases, base.String())
		}
		fmt.Fprintf(out, "  base types: %s\n", strings.Join(bases, " -> "))
	}
	if key, ok := p.Key(name); ok {
		fmt.Fprintf(out, "  key: %s\n", strings.Join(key.Names(), ", "))
	}

	if props := p.EffectiveProperties(name); len(props) > 0 {
		label.Fprintln(out, "  properties:")
		for _, prop := range props {
			fmt.Fprintf(out, "    %s %s", prop.Name, prop.Type)
			if !prop.Nullable {
				fmt.Fprint(out, " not null")
			}
			if prop.DeclaringType != name {
				fmt.Fprintf(out, " (from %s)", prop.DeclaringType)
			}
			fmt.Fprintln(out)
		}
	}
	if navs := p.EffectiveNavigationProperties(name); len(navs) > 0 {
		label.Fprintln(out, "  navigation properties:")
		for _, nav := range navs {
			fmt.Fprintf(out, "    %s %s", nav.Name, nav.Type)
			if nav.Partner != "" {
				fmt.Fprintf(out, " partner=%s", nav.Partner)
			}
			if nav.ContainsTarget {
				fmt.Fprint(out, " contained")
			}
			fmt.Fprintln(out)
		}
	}
	if derived := p.DerivedTypes(name); len(derived) > 0 {
		names := make([]string, len(derived))
		for i, d := range derived {
			names[i] = d.String()
		}
		fmt.Fprintf(out, "  derived types: %s\n", strings.Join(names, ", "))
	}
}
