package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

func newTenantCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage per-tenant timezone, windows and ping settings",
	}

	cmd.AddCommand(
		newTenantSetCmd(app),
		newTenantShowCmd(app),
		newTenantListCmd(app),
	)

	return cmd
}

func newTenantSetCmd(app *app) *cobra.Command {
	var tenantID string
	var timezone string
	var windows string
	var channel string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update a tenant's configuration",
		Long:  "set changes only the flags given; other settings keep their stored or default values. Pass --windows \"\" to disable stellar windows.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			update := application.SetTenantCommand{ID: domain.TenantID(strings.TrimSpace(tenantID))}
			flags := cmd.Flags()
			if flags.Changed("timezone") {
				update.Timezone = &timezone
			}
			if flags.Changed("windows") {
				update.Windows = &windows
			}
			if flags.Changed("operator-channel") {
				update.OperatorChannel = &channel
			}
			if flags.Changed("ping-interval") {
				d, err := flags.GetDuration("ping-interval")
				if err != nil {
					return err
				}
				update.PingInterval = &d
			}
			if flags.Changed("ping-timeout") {
				d, err := flags.GetDuration("ping-timeout")
				if err != nil {
					return err
				}
				update.PingTimeout = &d
			}

			cfg, err := app.tenants.Set(cmd.Context(), update)
			if err != nil {
				return err
			}
			return writeTenant(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. America/Mexico_City")
	cmd.Flags().StringVar(&windows, "windows", "", "Stellar windows, e.g. 00:00-02:00,16:00-18:00")
	cmd.Flags().StringVar(&channel, "operator-channel", "", "Chat that receives activity and archive reports")
	cmd.Flags().Duration("ping-interval", domain.DefaultPingInterval, "Time between liveness pings")
	cmd.Flags().Duration("ping-timeout", domain.DefaultPingTimeout, "Time to answer a ping before the session closes")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newTenantShowCmd(app *app) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a tenant's effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.tenants.Config(cmd.Context(), domain.TenantID(strings.TrimSpace(tenantID)))
			if err != nil {
				return err
			}
			return writeTenant(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newTenantListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs, err := app.tenants.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no tenants configured")
				return err
			}
			for _, cfg := range configs {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					cfg.ID, cfg.Timezone, windowsLabel(cfg.Windows)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func writeTenant(cmd *cobra.Command, cfg domain.TenantConfig) error {
	channel := cfg.OperatorChannel
	if channel == "" {
		channel = "-"
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(),
		"tenant: %s\ntimezone: %s\nwindows: %s\nping interval: %s\nping timeout: %s\noperator channel: %s\n",
		cfg.ID, cfg.Timezone, windowsLabel(cfg.Windows), cfg.PingInterval, cfg.PingTimeout, channel)
	return err
}

func windowsLabel(windows []domain.Window) string {
	if len(windows) == 0 {
		return "none"
	}
	return domain.FormatWindows(windows)
}
