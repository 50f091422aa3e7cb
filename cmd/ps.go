package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var psCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List VMs with their recorded status",
		Args:  cobra.NoArgs,
		RunE:  runPS,
	}
	cmd.Flags().String("owner", "", "only VMs of this member ID")
	return cmd
}()

func runPS(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	owner, _ := cmd.Flags().GetString("owner")
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	vms, err := mgr.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("ps: %w", err)
	}
	if len(vms) == 0 {
		fmt.Println("No VMs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	_, _ = fmt.Fprintln(w, "ID\tREMOTE\tNAME\tSTATUS\tADDRESS\tCPU\tMEMORY\tDISK\tCREATED")
	for _, vm := range vms {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			vm.ID,
			vm.RemoteID,
			vm.Name,
			vm.Status,
			vm.Address,
			vm.Spec.CPUCores,
			units.BytesSize(float64(vm.Spec.MemoryMB)*units.MiB),
			units.BytesSize(float64(vm.Spec.DiskGB)*units.GiB),
			vm.CreatedAt.Local().Format(time.DateTime),
		)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}
