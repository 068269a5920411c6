package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

func newBackupCmd(app *app) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a compressed snapshot of live sessions and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var results []application.BackupResult
			job := func(ctx context.Context) error {
				if strings.TrimSpace(tenantID) == "" {
					var err error
					results, err = app.backup.BackupAll(ctx)
					return err
				}
				result, err := app.backup.Backup(ctx, domain.TenantID(tenantID))
				if err != nil {
					return err
				}
				results = append(results, result)
				return nil
			}

			err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Writing backup...", job)
			for _, result := range results {
				uploaded := ""
				if result.Uploaded {
					uploaded = " (uploaded)"
				}
				if _, writeErr := fmt.Fprintf(cmd.OutOrStdout(), "tenant %s: %s%s\n",
					result.TenantID, strings.Join(result.Files, ", "), uploaded); writeErr != nil && err == nil {
					err = writeErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (default: every tenant with data)")

	return cmd
}
