package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions in the backing file",
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

		ids, err := st.List()
		if err != nil {
			return err
		}
		snapshot, err := st.Snapshot()
		if err != nil {
			return err
		}

		for _, id := range ids {
			dir := "(unset)"
			if state := snapshot[id]; state.WorkingDirectory != nil {
				dir = *state.WorkingDirectory
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
