package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/sql2xlsx/internal/bootstrap"
	"github.com/locvowork/sql2xlsx/internal/logger"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve named query exports over HTTP",
		Long: `Start an HTTP server exposing GET /export/<name>, which runs
<QUERY_DIR>/<name>.sql and returns the workbook as a download, along with
GET /healthz and GET /metrics.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var files []string
			if opts.envFile != "" {
				files = append(files, opts.envFile)
			}

			app := bootstrap.NewApp()
			if err := app.Initialize(ctx, files...); err != nil {
				return err
			}
			logger.RaiseVerbosity(opts.verbosity)
			defer logger.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- app.Run() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.InfoLog(context.Background(), "shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return app.Shutdown(shutdownCtx)
			}
		},
	}
}
