package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locvowork/sql2xlsx/internal/config"
	"github.com/locvowork/sql2xlsx/internal/handler"
	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/internal/metrics"
	"github.com/locvowork/sql2xlsx/internal/service"
)

// App is the HTTP export service.
type App struct {
	Echo     *echo.Echo
	Service  service.ExportService
	Registry *prometheus.Registry
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{
		Echo:     e,
		Registry: prometheus.NewRegistry(),
	}
}

// Initialize loads configuration and wires the export service and routes.
func (a *App) Initialize(ctx context.Context, envFiles ...string) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(envFiles...); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	env := config.DefaultEnvConfig

	// Initialize logging
	if err := logger.InitLogging(env.LOG_FILE_PATH); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetLevel(env.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	if err := env.Validate(); err != nil {
		return err
	}

	profile, err := LoadProfile(env.EXPORT_PROFILE)
	if err != nil {
		return err
	}

	// Initialize dependencies
	exp := NewExporter(env, profile)
	m := metrics.NewMetrics(a.Registry)
	a.Service = service.NewExportService(exp, m, env.QUERY_DIR, "")
	exportHandler := handler.NewExportHandler(a.Service)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(exportHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(exportHandler *handler.ExportHandler) {
	a.Echo.GET("/healthz", exportHandler.HealthHandler)
	a.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	exportGroup := a.Echo.Group("/export")
	exportGroup.GET("/:name", exportHandler.ExportNamedHandler)
}

func (a *App) Run() error {
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
