package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shenikar/incident_dashboard/internal/export"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
	"github.com/shenikar/incident_dashboard/internal/service"
)

func (o *RootOptions) filter(limits query.LimitRange) query.Filter {
	return query.ParseFilter(query.Params{
		Statuses:      o.Statuses,
		Severities:    o.Severities,
		CreatedBefore: o.CreatedBefore,
		CreatedAfter:  o.CreatedAfter,
		BBox:          o.BBox,
		Limit:         o.Limit,
		Sort:          o.Sort,
	}, limits)
}

// NewListCommand создает команду list
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print a page of incidents as JSON",
		Example: `  incidentctl list --status open --limit 2
  incidentctl list --bbox -130,0,0,60 --sort asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, svc service.IncidentService) error {
				result, err := svc.ListIncidents(ctx, opts.filter(query.ListLimits))
				if err != nil {
					return err
				}
				reportServed(cmd, result.Served)
				return writeJSON(cmd.OutOrStdout(), export.JSONPage(result.Page))
			})
		},
	}
}

// NewStatsCommand создает команду stats
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print counts by status and severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, svc service.IncidentService) error {
				result, err := svc.GetStats(ctx, opts.filter(query.ListLimits))
				if err != nil {
					return err
				}
				reportServed(cmd, result.Served)
				return writeJSON(cmd.OutOrStdout(), result.Stats)
			})
		},
	}
}

// NewExportCommand создает команду export
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var rawFormat string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export incidents as csv, json or geojson",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc service.IncidentService) error {
				result, err := svc.ExportIncidents(ctx, opts.filter(query.ExportLimits))
				if err != nil {
					return err
				}
				reportServed(cmd, result.Served)

				out := cmd.OutOrStdout()
				switch format {
				case export.FormatJSON:
					return writeJSON(out, export.JSONPage(result.Page))
				case export.FormatGeoJSON:
					return writeJSON(out, export.GeoJSON(result.Items))
				default:
					_, err := io.WriteString(out, export.CSV(result.Items)+"\n")
					return err
				}
			})
		},
	}
	cmd.Flags().StringVar(&rawFormat, "format", string(export.FormatCSV), "csv, json or geojson")
	return cmd
}

func reportServed(cmd *cobra.Command, served models.Served) {
	if served.Fallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "demo mode: served from memory (durable store %s)\n", served.Backend)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
