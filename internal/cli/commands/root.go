// Package commands implements the edmctl command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/fatih/color"
	"github.com/nlstn/go-edm"
	"github.com/nlstn/go-edm/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "edmctl",
		Short: "Validate, inspect and catalog Entity Data Model documents",
		Long: color.CyanString(`edmctl - Entity Data Model tooling

Validates YAML model documents, describes and resolves their elements, and
moves them in and out of a SQL metadata catalog.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./edmctl.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("catalog-driver", "", "catalog database driver: sqlite or postgres")
	flags.String("catalog-dsn", "", "catalog database DSN")
	flags.Bool("geospatial", false, "allow Edm.Geography and Edm.Geometry types")

	for key, flag := range map[string]string{
		"log_level":      "log-level",
		"catalog.driver": "catalog-driver",
		"catalog.dsn":    "catalog-dsn",
		"geospatial":     "geospatial",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newDescribeCommand(a))
	rootCmd.AddCommand(newResolveCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newExportCommand(a))

	return rootCmd
}

func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) newProvider() *edm.Provider {
	return edm.NewProvider(edm.ProviderConfig{Logger: a.logger, Geospatial: a.cfg.Geospatial})
}

// loadFiles builds one model from the YAML documents at paths.
func (a *app) loadFiles(ctx context.Context, paths []string) (*edm.Provider, error) {
	sources := make([]edm.Source, len(paths))
	for i, path := range paths {
		sources[i] = edm.YAMLFile(path)
	}
	p := a.newProvider()
	if err := p.Load(ctx, edm.Sources(sources...)); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *app) openCatalog(ctx context.Context) (*edm.Catalog, error) {
	c, err := edm.OpenCatalog(a.cfg.Catalog.Driver, a.cfg.Catalog.DSN, edm.WithCatalogLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if err := c.Migrate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "edmctl version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
