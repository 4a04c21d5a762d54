package main

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/spf13/cobra"
)

var (
	fingerprint string
	listLimit   int
)

var trialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Inspect and reset anonymous trials",
}

var trialResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Give a visitor a fresh trial allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fingerprint == "" {
			return errors.New("--fingerprint is required")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		svc := trial.NewService(cfg.AnonTrialLimit, cfg.AnonTrialTTL, nil, trial.NewDBStore(db))
		st, err := svc.Reset(cmd.Context(), fingerprint)
		if err != nil {
			return err
		}
		logger.Info("trial reset", "fingerprint", st.Fingerprint, "remaining", st.Remaining, "expires_at", st.ExpiresAt)
		return nil
	},
}

var trialListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently used trials",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		trials, err := trial.NewDBStore(db).List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Trials (%d)", len(trials))))
		for _, st := range trials {
			mark := okStyle.Render("●")
			switch {
			case st.ConvertedUserID != nil:
				mark = dimStyle.Render("○")
			case st.Exhausted():
				mark = errStyle.Render("●")
			}
			fmt.Printf("%s %s  %d/%d  %s\n", mark, st.Fingerprint, st.Remaining, st.Limit,
				dimStyle.Render("updated "+st.UpdatedAt.Format("2006-01-02 15:04")))
		}
		return nil
	},
}

func init() {
	trialResetCmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Visitor fingerprint")
	trialListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum rows")
	trialCmd.AddCommand(trialResetCmd, trialListCmd)
}
