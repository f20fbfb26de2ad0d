// Package cli implements the sql2xlsx command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/locvowork/sql2xlsx/internal/bootstrap"
	"github.com/locvowork/sql2xlsx/internal/config"
	"github.com/locvowork/sql2xlsx/internal/exporter"
	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/internal/metrics"
	"github.com/locvowork/sql2xlsx/internal/queryfile"
	"github.com/locvowork/sql2xlsx/internal/service"
	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

type rootOptions struct {
	verbosity    int
	envFile      string
	profile      string
	chunkSize    int
	sheet        string
	intermediate string
	prefetch     bool
}

// NewRootCommand builds the command tree writing to the given streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sql2xlsx [flags] <query-file.sql> [output_file.xlsx]",
		Short: "Export the result of a SQL query to a styled spreadsheet",
		Long: `sql2xlsx runs the query stored in a file and streams its result into an
.xlsx workbook. Column widths, number formats and header styling are derived
from the data in the same pass, so memory use does not grow with the result.

Database settings come from the environment or a .env file:
  DB_DRIVER (mysql, postgres, sqlite), DB_DSN or DB_HOST/DB_PORT/DB_USER/
  DB_PASSWORD/DB_NAME.

The output defaults to <query-file>_result.xlsx. Query files may be
compressed with gzip, zstd, xz or bzip2.`,
		Args:          usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return runExport(cmd.Context(), opts, args[0], output)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file instead of .env")

	local := cmd.Flags()
	local.StringVar(&opts.profile, "profile", "", "YAML export profile (overrides EXPORT_PROFILE)")
	local.IntVar(&opts.chunkSize, "chunk-size", 0, "rows fetched per batch (default 1000)")
	local.StringVar(&opts.sheet, "sheet", "", "name of the output sheet")
	local.StringVar(&opts.intermediate, "intermediate", "", "path of the intermediate workbook, kept after a successful run (default: temporary file, removed)")
	local.BoolVar(&opts.prefetch, "prefetch", false, "fetch the next batch while writing the current one")

	cmd.AddCommand(newServeCommand(opts), newVersionCommand())
	return cmd
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Error: %v\n", ue.err)
		fmt.Fprintf(stderr, "Usage: %s\n", cmd.UseLine())
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

func loadEnv(opts *rootOptions) (config.EnvConfig, error) {
	var files []string
	if opts.envFile != "" {
		files = append(files, opts.envFile)
	}
	if err := config.LoadEnvConfig(files...); err != nil {
		return config.EnvConfig{}, err
	}
	env := config.DefaultEnvConfig
	if err := logger.InitLogging(env.LOG_FILE_PATH); err != nil {
		return env, err
	}
	logger.SetLevel(env.LOG_LEVEL)
	logger.RaiseVerbosity(opts.verbosity)
	return env, nil
}

func runExport(ctx context.Context, opts *rootOptions, queryPath, output string) error {
	// the query file is read before any configuration so its open error
	// decides the exit status
	query, err := queryfile.Read(queryPath)
	if err != nil {
		return err
	}
	if output == "" {
		output = queryfile.DefaultOutputPath(queryPath)
	}

	env, err := loadEnv(opts)
	if err != nil {
		return err
	}
	defer logger.Close()
	if err := env.Validate(); err != nil {
		return err
	}

	profilePath := env.EXPORT_PROFILE
	if opts.profile != "" {
		profilePath = opts.profile
	}
	profile, err := bootstrap.LoadProfile(profilePath)
	if err != nil {
		return err
	}

	var extra []exporter.Option
	if opts.chunkSize > 0 {
		extra = append(extra, exporter.WithChunkSize(opts.chunkSize))
	}
	if opts.sheet != "" {
		extra = append(extra, exporter.WithSheetOptions(xlsxexport.WithSheetName(opts.sheet)))
	}
	if opts.intermediate != "" {
		extra = append(extra, exporter.WithIntermediatePath(opts.intermediate))
	}
	if opts.prefetch {
		extra = append(extra, exporter.WithPrefetch(1))
	}

	exp := bootstrap.NewExporter(env, profile, extra...)
	svc := service.NewExportService(exp, metrics.NewMetrics(prometheus.NewRegistry()), env.QUERY_DIR, "")

	logger.InfoLog(ctx, "exporting %s to %s", queryPath, output)
	res, err := svc.Export(ctx, query, output)
	if err != nil {
		return err
	}
	logger.InfoLog(ctx, "wrote %d rows to %s", res.Rows, res.OutputPath)
	return nil
}
