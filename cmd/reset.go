package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/track"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard today's record and start the day over",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			cmd.Println("This permanently discards today's tracked time. Re-run with --yes to confirm.")
			return nil
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		date := track.DateKey(time.Now())
		if err := st.ResetDay(date); err != nil {
			return err
		}
		cmd.Printf("Record for %s reset. Restart a running agent so it opens a fresh session.\n", date)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
