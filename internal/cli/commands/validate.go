package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nlstn/go-edm"
	"github.com/spf13/cobra"
)

func newValidateCommand(a *app) *cobra.Command {
	var namespaces []string

	cmd := &cobra.Command{
		Use:   "validate [model.yaml...]",
		Short: "Validate model documents",
		Long: `Validate builds a single model from the given YAML documents and reports
every problem found. Without arguments it validates the catalog instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var src edm.Source
			if len(args) == 0 {
				c, err := a.openCatalog(ctx)
				if err != nil {
					return err
				}
				defer c.Close()
				if len(namespaces) > 0 {
					c = c.WithScopes(edm.NamespaceScope(namespaces...))
				}
				src = c
			} else {
				sources := make([]edm.Source, len(args))
				for i, path := range args {
					sources[i] = edm.YAMLFile(path)
				}
				src = edm.Sources(sources...)
			}

			p := a.newProvider()
			if err := p.Load(ctx, src); err != nil {
				return reportInvalid(out, err)
			}

			m := p.Model()
			color.New(color.FgGreen, color.Bold).Fprintln(out, "✓ Model is valid")
			fmt.Fprintf(out, "  namespaces:  %s\n", strings.Join(m.Namespaces(), ", "))
			fmt.Fprintf(out, "  fingerprint: %s\n", m.FingerprintHex())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&namespaces, "namespace", nil, "restrict catalog validation to these namespaces")
	return cmd
}

// reportInvalid prints the problems of a validation error and returns a short
// summary error. Other errors pass through unchanged.
func reportInvalid(out io.Writer, err error) error {
	var verr *edm.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	problems := verr.Problems()

	color.New(color.FgRed, color.Bold).Fprintf(out, "✗ Model is invalid (%d problems)\n", len(problems))
	pathColor := color.New(color.FgYellow)
	for _, problem := range problems {
		fmt.Fprint(out, "  - ")
		if problem.Path != "" {
			pathColor.Fprintf(out, "%s: ", problem.Path)
		}
		fmt.Fprintln(out, problem.Message)
	}
	return fmt.Errorf("validation failed with %d problems", len(problems))
}
