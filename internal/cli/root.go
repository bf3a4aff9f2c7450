// Package cli реализует incidentctl: выборку, статистику и выгрузку инцидентов
// из командной строки через тот же сервис, что и HTTP API.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/shenikar/incident_dashboard/internal/config"
	"github.com/shenikar/incident_dashboard/internal/repository"
	"github.com/shenikar/incident_dashboard/internal/repository/seed"
	"github.com/shenikar/incident_dashboard/internal/service"
	"github.com/shenikar/incident_dashboard/pkg/logger"
	"github.com/shenikar/incident_dashboard/pkg/postgres"
)

// ServiceFactory собирает сервис и функцию освобождения ресурсов
type ServiceFactory func(ctx context.Context, logOut io.Writer) (service.IncidentService, func(), error)

// RootOptions - общие флаги всех команд
type RootOptions struct {
	Statuses      []string
	Severities    []string
	CreatedBefore string
	CreatedAfter  string
	BBox          string
	Limit         string
	Sort          string
	LogLevel      string
	Timeout       time.Duration

	factory ServiceFactory
}

// NewRootCommand создает корневую команду incidentctl
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultServiceFactory
	}
	opts := &RootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:   "incidentctl",
		Short: "Query incidents from the command line",
		Long: `Query, aggregate and export incidents.

Reads from PostgreSQL when DATABASE_URL is set and falls back to the
in-memory demo data otherwise, exactly like the HTTP API.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&opts.Statuses, "status", nil, "status filter (repeatable)")
	flags.StringSliceVar(&opts.Severities, "severity", nil, "severity filter (repeatable)")
	flags.StringVar(&opts.CreatedBefore, "created-before", "", "strict upper bound on created_at")
	flags.StringVar(&opts.CreatedAfter, "created-after", "", "inclusive lower bound on created_at")
	flags.StringVar(&opts.BBox, "bbox", "", "minLon,minLat,maxLon,maxLat")
	flags.StringVar(&opts.Limit, "limit", "", "page size")
	flags.StringVar(&opts.Sort, "sort", "desc", "desc or asc")
	flags.StringVar(&opts.LogLevel, "log-level", "error", "log level written to stderr")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall command timeout")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// DefaultServiceFactory поднимает хранилища из переменных окружения
func DefaultServiceFactory(ctx context.Context, logOut io.Writer) (service.IncidentService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewWithOutput(cfg.LogLevel, logOut)

	demo, err := seed.Demo(time.Now())
	if err != nil {
		return nil, nil, err
	}
	fallback := repository.NewMemoryStore(demo)

	cleanup := func() {}
	durable := repository.NewPostgresRepository(nil, nil, cfg.CacheTTL)
	if cfg.DurableConfigured() {
		dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("PostgreSQL is not available")
		}
		if dbpool != nil {
			durable = repository.NewPostgresRepository(dbpool, nil, cfg.CacheTTL)
			cleanup = dbpool.Close
		}
	}

	return service.NewIncidentService(durable, fallback, log, cfg, nil, nil), cleanup, nil
}

func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, svc service.IncidentService) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	defer cancel()

	svc, cleanup, err := o.factory(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}
