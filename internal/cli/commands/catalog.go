package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/nlstn/go-edm"
	"github.com/spf13/cobra"
)

func newImportCommand(a *app) *cobra.Command {
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "import <model.yaml>...",
		Short: "Store model documents in the catalog",
		Long: `Import validates each document and stores it in the catalog configured by
catalog.driver and catalog.dsn. Namespaces already in the catalog are replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			docs := make([]*edm.Document, len(args))
			for i, path := range args {
				doc, err := edm.ReadYAML(path)
				if err != nil {
					return err
				}
				docs[i] = doc
			}

			if !skipValidation {
				sources := make([]edm.Source, len(docs))
				for i, doc := range docs {
					sources[i] = edm.DocumentSource(doc)
				}
				if err := a.newProvider().Load(ctx, edm.Sources(sources...)); err != nil {
					return reportInvalid(out, err)
				}
			}

			c, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			success := color.New(color.FgGreen)
			for i, doc := range docs {
				if err := c.Import(ctx, doc); err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				for _, ns := range doc.Namespaces() {
					success.Fprintf(out, "✓ Imported %s", ns)
					fmt.Fprintf(out, " from %s\n", args[i])
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "store documents without validating them first")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		namespaces []string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog contents as a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			if len(namespaces) > 0 {
				c = c.WithScopes(edm.NamespaceScope(namespaces...))
			}

			doc, err := c.Export(ctx)
			if err != nil {
				return err
			}
			if len(doc.Schemas) == 0 {
				return fmt.Errorf("catalog holds no matching schemas")
			}

			if output == "" || output == "-" {
				return edm.EncodeYAML(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := edm.EncodeYAML(f, doc); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringSliceVar(&namespaces, "namespace", nil, "export only these namespaces")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
