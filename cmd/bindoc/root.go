package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JakeStanger/rust-bindocs/internal/config"
	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/resolver"
)

// app holds the persistent flags shared by every command.
type app struct {
	projectPath string
	docsPath    string
	outputPath  string
	format      string
	pattern     string
	fullTypes   bool
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bindoc",
		Short: "Render Rust struct and enum documentation into templates",
		Long: "bindoc reads the doc comments of a Rust crate and expands <% path %> " +
			"directives in documentation templates into rendered declarations.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.projectPath, "project-path", "p", ".", "path to the crate root")
	flags.StringVarP(&a.docsPath, "docs-path", "d", "", "template file or directory (default <project>/docs)")
	flags.StringVarP(&a.outputPath, "output-path", "o", "", "output file or directory (default <project>/target/bindoc)")
	flags.StringVar(&a.format, "format", "markdown", "output format: markdown, html or docx")
	flags.StringVar(&a.pattern, "pattern", "**/*", "glob selecting templates inside the docs directory")
	flags.BoolVar(&a.fullTypes, "full-types", false, "print field types as written instead of simplified")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newRenderCmd(a),
		newPreviewCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newOutlineCmd(a),
	)
	return root
}

// config layers the environment, the project's bindoc.toml and any flags
// set on the command line, in that order.
func (a *app) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	flags := cmd.Flags()

	if flags.Changed("project-path") {
		cfg.ProjectPath = a.projectPath
	}
	if err := cfg.LoadFile(filepath.Join(cfg.ProjectPath, config.FileName)); err != nil {
		return cfg, err
	}

	if flags.Changed("docs-path") {
		cfg.DocsPath = a.docsPath
	}
	if flags.Changed("output-path") {
		cfg.OutputPath = a.outputPath
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	if flags.Changed("pattern") {
		cfg.Pattern = a.pattern
	}
	if flags.Changed("full-types") {
		cfg.SimplifiedTypes = !a.fullTypes
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	f, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return cfg, err
	}
	cfg.Format = string(f)
	cfg.ApplyDefaults()
	return cfg, nil
}

func (a *app) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}

// workspace is a validated configuration with a resolved crate.
type workspace struct {
	cfg      config.Config
	log      *slog.Logger
	resolver *resolver.Resolver
}

// prepare validates configuration and resolves the crate. Missing paths
// exit with 1, a missing entry file with 2.
func (a *app) prepare(cmd *cobra.Command) (*workspace, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, withCode(1, err)
	}
	log := a.logger(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, withCode(1, err)
	}

	res, err := resolveCrate(cmd.Context(), cfg, log)
	if err != nil {
		if errors.Is(err, resolver.ErrNoEntryFile) {
			return nil, withCode(2, err)
		}
		return nil, withCode(1, err)
	}
	return &workspace{cfg: cfg, log: log, resolver: res}, nil
}

func resolveCrate(ctx context.Context, cfg config.Config, log *slog.Logger) (*resolver.Resolver, error) {
	entry, err := resolver.FindEntryFile(cfg.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("could not find rust project: %w", err)
	}

	res := resolver.New(entry, log)
	cat, err := res.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved crate", "entry", entry, "modules", cat.Len(), "declarations", cat.Declarations())
	return res, nil
}
