package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sha1n/docscan/internal/app"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "docscan"
)

// exitInterrupted is the conventional exit code after SIGINT
const exitInterrupted = 130

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := Execute(ctx, Version, Build, ProgramName, args[1:])
	switch {
	case err == nil:
	case errors.Is(err, app.ErrInterrupted):
		exit(exitInterrupted)
	default:
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(ctx context.Context, version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Regex term scanner for document folders",
		Long: "Scans a folder of documents (PDF, text, Markdown, DOCX, e-mail) for a list of " +
			"named regular expressions and reports every match with its surrounding context.\n" +
			"Running without a subcommand is the same as running scan.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunScan(cmd.Context(), app.DefaultScanParams(), cmd.Flags())
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}} (build ` + build + `)
`)
	app.RegisterScanFlags(rootCmd.Flags())

	rootCmd.AddCommand(
		newScanCommand(),
		newSearchCommand(),
		newServeCommand(version),
		newTermsCommand(),
	)

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a folder and write the matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunScan(cmd.Context(), app.DefaultScanParams(), cmd.Flags())
		},
	}
	app.RegisterScanFlags(cmd.Flags())
	return cmd
}

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the matches of indexed scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSearch(cmd.Context(), app.DefaultSearchParams(), cmd.Flags(), args)
		},
	}
	app.RegisterSearchFlags(cmd.Flags())
	return cmd
}

func newServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio or SSE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunWithDeps(cmd.Context(), app.DefaultRunParams(), cmd.Flags(), version)
		},
	}
	app.RegisterServeFlags(cmd.Flags())
	return cmd
}

func newTermsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Work with term lists",
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and compile a term list without scanning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunValidateTerms(cmd.Flags(), cmd.OutOrStdout())
		},
	}
	app.RegisterTermsFlags(validate.Flags())

	cmd.AddCommand(validate)
	return cmd
}
