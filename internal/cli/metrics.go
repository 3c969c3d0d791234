package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"atspro/internal/common"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Recruitment metrics maintenance",
}

var metricsRollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Compute daily recruitment metrics for every HR user",
	Long: `Compute one recruitment_metrics row per HR user for a calendar day (UTC).
Applications and completed interviews are counted up to the end of that day,
and placements count only when their placement date falls on or before it.
Statuses come from the current pipeline, since status history is not kept, so
rolling up a past day reports where those applications stand now. Running the
rollup again for the same day replaces the earlier rows. Defaults to yesterday.`,
	Args: cobra.NoArgs,
	RunE: runMetricsRollup,
}

var metricsDate string

func init() {
	metricsRollupCmd.Flags().StringVar(&metricsDate, "date", "", "Day to roll up, YYYY-MM-DD (default: yesterday)")
	metricsCmd.AddCommand(metricsRollupCmd)
}

func runMetricsRollup(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	day, err := common.ParseDay(metricsDate, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.ats.RollupRecruitmentMetrics(cmd.Context(), day)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HR USER\tDATE\tAPPLICATIONS\tREVIEWED\tSHORTLISTED\tINTERVIEWS\tOFFERS\tPLACED\tDAYS TO HIRE")
	for _, m := range rows {
		tth := "-"
		if m.AvgTimeToHire != nil {
			tth = fmt.Sprintf("%.1f", *m.AvgTimeToHire)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			m.HRUserID, m.MetricDate, m.TotalApplications, m.ApplicationsReviewed,
			m.CandidatesShortlisted, m.InterviewsConducted, m.OffersMade, m.PlacementsCompleted, tth)
	}
	return w.Flush()
}
