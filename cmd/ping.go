package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Answer a liveness ping on behalf of a user",
	}

	cmd.AddCommand(
		newPingAckCmd(app),
		newPingCloseCmd(app),
	)

	return cmd
}

func newPingAckCmd(app *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Confirm the session is still active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseSessionID(sessionID)
			if err != nil {
				return err
			}
			result, err := app.liveness.Acknowledge(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "acknowledged", result)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newPingCloseCmd(app *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close the session from its ping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseSessionID(sessionID)
			if err != nil {
				return err
			}
			result, err := app.liveness.CloseFromPing(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "closed", result)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newSweepCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one liveness sweep over every open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.liveness.Sweep(cmd.Context(), app.now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "checked=%d pinged=%d closed=%d skipped=%d failed=%d\n",
				report.Checked, report.Pinged, report.Closed, report.Skipped, report.Failed)
			return err
		},
	}
}
