package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

func newArchiveCmd(app *app) *cobra.Command {
	var tenantID string
	var drain bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Close the current period and export it to CSV",
		Long:  "archive moves live sessions to history and writes one CSV per tenant. With --drain, in-progress sessions are closed at the boundary and restarted right after it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := application.ArchiveOptions{Drain: drain}
			if !cmd.Flags().Changed("drain") {
				opts.Drain = app.cfg.ArchiveDrain
			}

			var results []application.ArchiveResult
			job := func(ctx context.Context) error {
				if strings.TrimSpace(tenantID) == "" {
					var err error
					results, err = app.archive.ArchiveAll(ctx, opts)
					return err
				}
				result, err := app.archive.ArchivePeriod(ctx, domain.TenantID(tenantID), opts)
				if err != nil {
					return err
				}
				results = append(results, result)
				return nil
			}

			var err error
			if asJSON {
				err = job(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Archiving period...", job)
			}
			// ArchiveAll returns the tenants that succeeded alongside the error.
			if writeErr := writeArchiveResults(cmd, results, asJSON); writeErr != nil && err == nil {
				err = writeErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (default: every tenant with live sessions)")
	cmd.Flags().BoolVar(&drain, "drain", true, "Close in-progress sessions and restart them after the boundary")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeArchiveResults(cmd *cobra.Command, results []application.ArchiveResult, asJSON bool) error {
	if asJSON {
		if results == nil {
			results = []application.ArchiveResult{}
		}
		return writeJSON(cmd, results)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "nothing archived")
		return err
	}
	for _, result := range results {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "tenant %s: run %s archived=%d restarted=%d file=%s\n",
			result.TenantID, result.RunID, result.Archived, len(result.Restarted), result.Artifact); err != nil {
			return err
		}
	}
	return nil
}
