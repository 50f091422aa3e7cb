package cmd

import (
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/BYEONGHWALEE-dev/cloud-service/gc"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove stale creating placeholders and report untracked remote VMs",
	RunE:  runGC,
}

func runGC(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	o := gc.New()
	mgr.RegisterGC(o)
	if err := o.Run(ctx); err != nil {
		return err
	}
	log.WithFunc("cmd.gc").Infof(ctx, "GC completed")
	return nil
}
