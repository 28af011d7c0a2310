package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the session's working directory",
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

		state, ok, err := st.Get(cfg.Server.SessionID)
		if err != nil {
			return err
		}
		if !ok || state.WorkingDirectory == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "no working directory set for session %q\n", cfg.Server.SessionID)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), *state.WorkingDirectory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
