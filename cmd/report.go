package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/report"
	"github.com/nvali/chronotap/internal/track"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build today's summary and send it to the configured channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		now := time.Now()
		date := track.DateKey(now)
		rec := st.LoadDay(date)
		r := report.Build(rec, st.AggregateTotals(now))

		ch, err := report.NewChannel(cfg.Report, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := ch.Send(r); err != nil {
			return err
		}
		return st.MarkReportSent(date, now)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
