package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/track"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's tracked totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		now := time.Now()
		rec := st.LoadDay(track.DateKey(now))

		cmd.Printf("Date:     %s\n", rec.Date)
		cmd.Printf("Total:    %s\n", rec.TotalTime.Round(time.Second))
		cmd.Printf("Active:   %s\n", rec.ActiveTime.Round(time.Second))
		cmd.Printf("Idle:     %s\n", rec.IdleTime.Round(time.Second))
		cmd.Printf("Sessions: %d\n", rec.SessionCount())
		if rec.ReportSent && rec.ReportSentAt != nil {
			cmd.Printf("Report:   sent %s\n", rec.ReportSentAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
