package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Claim history database commands",
}

var dbHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Ping the history database, apply migrations and print claim counts",
	RunE:  runDBHealth,
}

func init() {
	dbCmd.AddCommand(dbHealthCmd)
	rootCmd.AddCommand(dbCmd)
}

func runDBHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.DB == nil {
		return common.NewAppError(common.CodeConfig, "claim history is disabled (set database.dsn)", common.ErrInvalidInput)
	}

	if err := a.DB.HealthCheck(ctx, time.Second); err != nil {
		return fmt.Errorf("DB health: FAIL (%w)", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "DB health: OK (%s)\n", a.DB.Dialect)

	st, err := a.Claims.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "claims count: %d (total amount %d)\n", st.Total, st.TotalAmount)
	for _, s := range constants.Statuses() {
		fmt.Fprintf(w, "- %-10s %d\n", s, st.ByStatus[s].Count)
	}
	return nil
}
