package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect VM",
		Short: "Show VM details, refreshed from the hypervisor",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
	return cmd
}()

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	format, _ := cmd.Flags().GetString("output")
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	id, err := mgr.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	info, err := mgr.Inspect(ctx, id)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return printAs(format, info)
}
