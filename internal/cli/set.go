package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/sessfile/pkg/workdir"
)

var setCmd = &cobra.Command{
	Use:   "set <path>",
	Short: "Set the session's working directory",
	Args:  cobra.ExactArgs(1),
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

		if err := workdir.Set(cmd.Context(), st, cfg.Server.SessionID, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "session %q working directory set to %s\n", cfg.Server.SessionID, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
