package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show internal address pool usage",
	Args:  cobra.NoArgs,
	RunE:  runPool,
}

func runPool(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	u, err := mgr.PoolUsage(ctx)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	next := u.Next
	if next == "" {
		next = "(exhausted)"
	}
	fmt.Printf("Range:  %s%d - %s%d\n", u.Prefix, u.Start, u.Prefix, u.End)
	fmt.Printf("Used:   %d / %d\n", u.Used, u.Total)
	fmt.Printf("Next:   %s\n", next)
	return nil
}
