package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shiftlog",
		Short:         "shiftlog: track service shifts and convert them to coins",
		Long:          "shiftlog records volunteer and staff service sessions per tenant, splits their time into normal and stellar minutes, pings long-running shifts and archives each period to CSV.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		// Every command but version reports the wiring error.
		rootCmd.Args = cobra.ArbitraryArgs
		rootCmd.FParseErrWhitelist.UnknownFlags = true
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		rootCmd.AddCommand(newVersionCmd())
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newSessionCmd(app),
		newPingCmd(app),
		newSweepCmd(app),
		newReportCmd(app),
		newAdjustCmd(app),
		newArchiveCmd(app),
		newBackupCmd(app),
		newTenantCmd(app),
	)

	return rootCmd
}
