package cli

import (
	"github.com/spf13/cobra"

	"github.com/dkazakov/paysync/internal/config"
)

// root holds state shared by all commands: the resolved configuration and
// the composed application.
type root struct {
	app *App

	flagAddr     string
	flagDB       string
	flagConfig   string
	flagInterval int
}

// NewRootCmd builds the paysync command tree over an already loaded layered
// configuration (see config.LoadConfig). Long-form flags are invisible to the
// config package's short-flag pass, so they are overlaid here; flags always
// end up taking precedence over the JSON file.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	r := &root{}

	cmd := &cobra.Command{
		Use:           "paysync",
		Short:         "Offline-first payment tracker synchronized with a remote store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("config") {
				if err := config.LoadJSONFile(cfg, r.flagConfig); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("addr") {
				cfg.RemoteAddr = r.flagAddr
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = r.flagDB
			}
			if cmd.Flags().Changed("interval") {
				cfg.OnlineCheckInterval = secondsToDuration(r.flagInterval)
			}

			app, err := NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.app != nil {
				return r.app.Close()
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.flagAddr, "addr", "a", cfg.RemoteAddr, "base URL of the remote store")
	pf.StringVarP(&r.flagDB, "db", "d", cfg.DatabasePath, "path to the local database file")
	pf.StringVarP(&r.flagConfig, "config", "c", "", "path to a JSON config file")
	pf.IntVarP(&r.flagInterval, "interval", "i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval in seconds")

	cmd.AddCommand(
		newLoginCmd(r),
		newAddCmd(r),
		newEditCmd(r),
		newListCmd(r),
		newPayCmd(r),
		newDeleteCmd(r),
		newSyncCmd(r),
		newStatusCmd(r),
		newWatchCmd(r),
		newResetCmd(r),
	)
	return cmd
}
