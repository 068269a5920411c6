package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/adapters/render/report"
	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

func newReportCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show per-user totals and the tenant leaderboard",
	}

	cmd.AddCommand(
		newReportTotalsCmd(app),
		newReportTopCmd(app),
	)

	return cmd
}

func newReportTotalsCmd(app *app) *cobra.Command {
	var tenantID string
	var userID string
	var period string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show a user's minutes and coins for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant := domain.TenantID(tenantID)
			p, window, loc, err := resolvePeriod(cmd, app, tenant, period)
			if err != nil {
				return err
			}

			totals, err := app.reports.ComputeTotals(cmd.Context(), tenant, domain.UserID(userID), window.Start, window.End)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, totals)
			}

			rendered, err := app.totalsRenderer(report.Totals{Period: p, Location: loc, Totals: totals})
			if err != nil {
				return fmt.Errorf("render totals: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&period, "period", string(domain.PeriodAll), "Period: today, week, month or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newReportTopCmd(app *app) *cobra.Command {
	var tenantID string
	var period string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank users by coins earned in a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant := domain.TenantID(tenantID)
			p, window, loc, err := resolvePeriod(cmd, app, tenant, period)
			if err != nil {
				return err
			}

			standings, err := app.reports.Top(cmd.Context(), tenant, window.Start, window.End, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, standings)
			}

			rendered, err := app.leaderboardRenderer(report.Leaderboard{
				TenantID:  tenant,
				Period:    p,
				Range:     window,
				Location:  loc,
				Standings: standings,
			})
			if err != nil {
				return fmt.Errorf("render leaderboard: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&period, "period", string(domain.PeriodWeek), "Period: today, week, month or all")
	cmd.Flags().IntVar(&limit, "limit", application.DefaultTopLimit, "Maximum number of users")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func resolvePeriod(cmd *cobra.Command, app *app, tenant domain.TenantID, raw string) (domain.Period, domain.Interval, *time.Location, error) {
	period, err := domain.ParsePeriod(raw)
	if err != nil {
		return "", domain.Interval{}, nil, err
	}

	cfg, err := app.tenants.Config(cmd.Context(), tenant)
	if err != nil {
		return "", domain.Interval{}, nil, err
	}
	loc, err := domain.LoadLocation(cfg.Timezone)
	if err != nil {
		return "", domain.Interval{}, nil, err
	}

	window, err := app.reports.PeriodRange(cmd.Context(), tenant, period)
	if err != nil {
		return "", domain.Interval{}, nil, err
	}

	return period, window, loc, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
