package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/projecteru2/core/log"

	"github.com/BYEONGHWALEE-dev/cloud-service/vm"
)

var startCmd = &cobra.Command{
	Use:   "start VM [VM...]",
	Short: "Start stopped VM(s)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return batchVMCmd(commandContext(cmd), "start", "started", (*vm.Manager).StartAll, args)
	},
}

// batchVMCmd is a generic handler for start/stop/rm style commands that
// operate on a list of VM refs and report per-ID results.
func batchVMCmd(ctx context.Context, name, pastTense string, fn func(*vm.Manager, context.Context, []int64) ([]int64, error), refs []string) error {
	logger := log.WithFunc("cmd." + name)
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	ids, err := mgr.ResolveAll(ctx, refs)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	done, err := fn(mgr, ctx, ids)
	for _, id := range done {
		logger.Infof(ctx, "%s: %d", pastTense, id)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(done) == 0 {
		logger.Infof(ctx, "no VMs %s", strings.ToLower(pastTense))
	}
	return nil
}
