package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CyprienPascal/PIP/internal/app"
	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/exporter"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/pkg/contracts"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// cli holds the state shared by every sub-command
type cli struct {
	dataDir  string
	logLevel string
	export   string

	out    io.Writer
	errOut io.Writer

	loadConfig func() (*config.Config, error)
	engine     *app.Engine
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", slog.String("error", err.Error()))
	}

	c := &cli{out: os.Stdout, errOut: os.Stderr, loadConfig: config.Load}
	if err := c.rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "analyze",
		Short:         "Electoral abstention analysis from the command line",
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.engine == nil {
				return nil
			}
			return c.engine.Close()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.dataDir, "data-dir", "", "directory holding the source files (overrides PIP_PATHS_DATA_DIR)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&c.export, "export", "", "also write the view rows to this CSV file")

	root.AddCommand(
		c.trendCommand(),
		c.overviewCommand(),
		c.recurrenceCommand(),
		c.blankNullCommand(),
		c.povertyCommand(),
		c.unemploymentCommand(),
		c.ageCommand(),
		c.nuancesCommand(),
		c.incomeCommand(),
		c.mapCommand(),
		c.sourcesCommand(),
		c.importCommand(),
	)
	return root
}

// open loads the configuration and builds the engine. Sources load lazily.
func (c *cli) open(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.dataDir != "" {
		abs, err := filepath.Abs(c.dataDir)
		if err != nil {
			return fmt.Errorf("invalid data directory: %w", err)
		}
		cfg.Paths.DataDir = abs
	}
	cfg.Analysis.PreloadSources = false

	logger := infrastructure.NewLogger(c.errOut, c.logLevel)
	engine, err := app.NewEngine(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

// printDiagnostics lists the degradations of a view on the error stream
func (c *cli) printDiagnostics(diags domain.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(c.errOut, "warning: %s\n", d)
	}
}

// exportRows writes rows to the --export file when one is set
func exportRows[T any](c *cli, rows []T) error {
	if c.export == "" {
		return nil
	}
	f, err := os.Create(c.export)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := exporter.WriteRecords(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.errOut, "exported %d rows to %s\n", len(rows), c.export)
	return nil
}
