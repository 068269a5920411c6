package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

type sessionTarget struct {
	tenant string
	user   string
}

func (t *sessionTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.tenant, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&t.user, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
}

func (t sessionTarget) ids() (domain.TenantID, domain.UserID) {
	return domain.TenantID(strings.TrimSpace(t.tenant)), domain.UserID(strings.TrimSpace(t.user))
}

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start, pause, resume and close service sessions",
	}

	cmd.AddCommand(
		newSessionStartCmd(app),
		newSessionPauseCmd(app),
		newSessionResumeCmd(app),
		newSessionCloseCmd(app),
		newSessionForceCloseCmd(app),
		newSessionShowCmd(app),
		newSessionListCmd(app),
	)

	return cmd
}

func newSessionStartCmd(app *app) *cobra.Command {
	var target sessionTarget

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open a session for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			result, err := app.sessions.Start(cmd.Context(), application.StartSessionCommand{TenantID: tenant, UserID: user})
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "started", result)
		},
	}
	target.bind(cmd)

	return cmd
}

func newSessionPauseCmd(app *app) *cobra.Command {
	var target sessionTarget

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the user's open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			result, err := app.sessions.Pause(cmd.Context(), application.PauseSessionCommand{TenantID: tenant, UserID: user})
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "paused", result)
		},
	}
	target.bind(cmd)

	return cmd
}

func newSessionResumeCmd(app *app) *cobra.Command {
	var target sessionTarget

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the user's paused session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			result, err := app.sessions.Resume(cmd.Context(), application.ResumeSessionCommand{TenantID: tenant, UserID: user})
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "resumed", result)
		},
	}
	target.bind(cmd)

	return cmd
}

func newSessionCloseCmd(app *app) *cobra.Command {
	var target sessionTarget
	var reason string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close the user's session and account its minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			result, err := app.sessions.Close(cmd.Context(), application.CloseSessionCommand{TenantID: tenant, UserID: user, Reason: reason})
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "closed", result)
		},
	}
	target.bind(cmd)
	cmd.Flags().StringVar(&reason, "reason", domain.CloseReasonUser, "Close reason")

	return cmd
}

func newSessionForceCloseCmd(app *app) *cobra.Command {
	var target sessionTarget
	var reason string
	var actor string

	cmd := &cobra.Command{
		Use:   "force-close",
		Short: "Close another user's session as an operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user := target.ids()
			result, err := app.sessions.ForceClose(cmd.Context(), application.ForceCloseCommand{
				TenantID: tenant,
				UserID:   user,
				Reason:   reason,
				ActorID:  actor,
			})
			if err != nil {
				return err
			}
			return writeSessionResult(cmd, "force-closed", result)
		},
	}
	target.bind(cmd)
	cmd.Flags().StringVar(&reason, "reason", "", "Close reason (default: forced)")
	cmd.Flags().StringVar(&actor, "actor", "", "Operator performing the close")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			session, err := app.sessions.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeSession(cmd, session)
		},
	}

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	var tenantID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List who is on shift now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.sessions.OnShift(cmd.Context(), domain.TenantID(strings.TrimSpace(tenantID)))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, sessions)
			}
			if len(sessions) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "nobody on shift")
				return err
			}
			for _, session := range sessions {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n",
					session.ID, session.UserID, session.Status, session.StartAt.Format("2006-01-02 15:04 MST")); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func parseSessionID(raw string) (domain.SessionID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid session id %q", domain.ErrValidation, raw)
	}
	return domain.SessionID(id), nil
}

func writeSessionResult(cmd *cobra.Command, verb string, result application.SessionResult) error {
	session := result.Session
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "session %d %s: tenant=%s user=%s status=%s\n",
		session.ID, verb, session.TenantID, session.UserID, session.Status); err != nil {
		return err
	}
	if session.Status != domain.StatusClosed {
		return nil
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "accounted: normal=%dm stellar=%dm coins=%.2f\n",
		result.Split.Normal, result.Split.Stellar, result.Coins)
	return err
}

func writeSession(cmd *cobra.Command, session domain.Session) error {
	out := cmd.OutOrStdout()
	lines := []string{
		fmt.Sprintf("session: %d", session.ID),
		fmt.Sprintf("tenant: %s", session.TenantID),
		fmt.Sprintf("user: %s", session.UserID),
		fmt.Sprintf("status: %s", session.Status),
		fmt.Sprintf("started: %s", session.StartAt.Format("2006-01-02 15:04 MST")),
	}
	if session.EndAt != nil {
		lines = append(lines, fmt.Sprintf("ended: %s", session.EndAt.Format("2006-01-02 15:04 MST")))
		lines = append(lines, fmt.Sprintf("minutes: normal=%d stellar=%d", session.NormalMinutes, session.StellarMinutes))
	}
	if session.CloseReason != "" {
		lines = append(lines, fmt.Sprintf("reason: %s", session.CloseReason))
	}
	if session.PendingPing {
		lines = append(lines, "ping: pending")
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
