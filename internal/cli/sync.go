package cli

import (
	"github.com/spf13/cobra"

	"github.com/dkazakov/paysync/internal/remote"
	"github.com/dkazakov/paysync/internal/repositories/syncmeta"
)

func newLoginCmd(r *root) *cobra.Command {
	var owner, access, refresh string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the owner identity and session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := r.app.Store.Meta.Set(ctx, syncmeta.KeyOwnerID, []byte(owner)); err != nil {
				return err
			}
			return r.app.Gate.SetTokens(ctx, remote.TokenPair{AccessToken: access, RefreshToken: refresh})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner identity for remote calls")
	cmd.Flags().StringVar(&access, "access-token", "", "session access token")
	cmd.Flags().StringVar(&refresh, "refresh-token", "", "session refresh token")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("access-token")
	return cmd
}

func newSyncCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full reconciliation cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Orchestrator.PerformSync(cmd.Context())
		},
	}
}

func newStatusCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show synchronization state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := r.app.Orchestrator.Status(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("pending: %d\n", st.PendingCount)
			if st.LastSyncDate != nil {
				cmd.Printf("last sync: %s\n", st.LastSyncDate.Local())
			} else {
				cmd.Println("last sync: never")
			}
			if st.LastSyncError != "" {
				cmd.Printf("last error: %s\n", st.LastSyncError)
			}
			return nil
		},
	}
}

func newWatchCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep syncing in the background until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			events, cancel := r.app.Orchestrator.Subscribe()
			defer cancel()
			go func() {
				for res := range events {
					if res.Err != nil {
						cmd.Printf("sync failed: %v (pending %d)\n", res.Err, res.PendingCount)
					} else {
						cmd.Printf("synced at %s (pending %d)\n", res.CompletedAt.Local(), res.PendingCount)
					}
				}
			}()

			r.app.StartOnlineStatusWatcher(ctx, r.app.Config.OnlineCheckInterval)
			return nil
		},
	}
}

func newResetCmd(r *root) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard local data and rebuild from the remote store",
		Long: "Destructive last-resort recovery: wipes the local record set, " +
			"including any not-yet-uploaded changes, and rebuilds it from the " +
			"remote store. Requires --confirm.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Orchestrator.ResetFromRemote(cmd.Context(), confirm)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm discarding local-only changes")
	return cmd
}
