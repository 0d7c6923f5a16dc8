package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// markOverdueCmd flips PENDING records past their due date to OVERDUE.
// It is meant to run once a day from cron.
var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Mark pending debts past their due date as overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		changed, err := a.store.MarkOverdue(cmd.Context(), time.Now())
		if err != nil {
			return err
		}

		a.logger.WithFields(logrus.Fields{
			"module":  "cmd",
			"changed": changed,
		}).Info("overdue debts marked")
		fmt.Fprintf(cmd.OutOrStdout(), "%d debt(s) marked overdue\n", changed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(markOverdueCmd)
}
