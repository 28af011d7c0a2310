package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/sessfile/pkg/store"
	"github.com/harun/sessfile/pkg/workdir"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove sessions whose working directory no longer exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		lg, err := setupLogger(cfg, false)
		if err != nil {
			return err
		}
		defer lg.Close()

		st, err := openStore(cfg, false)
		if err != nil {
			return err
		}
		defer st.Close()

		cleaner, err := store.NewCleaner(st, cfg.Retention.Schedule, workdir.ShouldPrune)
		if err != nil {
			return err
		}

		removed, err := cleaner.RunOnce()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d session(s)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
