package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/application"
)

func newAdjustCmd(app *app) *cobra.Command {
	var target sessionTarget
	var minutes int64
	var reason string
	var actor string

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Credit or debit minutes for a user",
		Long:  "adjust records a signed minute correction. It is added to the user's normal minutes in every report whose period contains it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			adj, err := app.adjustments.Add(cmd.Context(), application.AddAdjustmentCommand{
				TenantID: tenant,
				UserID:   user,
				Minutes:  minutes,
				Reason:   reason,
				ActorID:  actor,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "adjustment %d: tenant=%s user=%s minutes=%+d by %s\n",
				adj.ID, adj.TenantID, adj.UserID, adj.Minutes, adj.ActorID)
			return err
		},
	}

	target.bind(cmd)
	cmd.Flags().Int64Var(&minutes, "minutes", 0, "Signed minutes to add")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the correction is made")
	cmd.Flags().StringVar(&actor, "actor", "", "Operator making the correction")
	_ = cmd.MarkFlagRequired("minutes")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}
