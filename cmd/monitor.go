package cmd

import (
	"fmt"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor VM",
	Short: "Show live resource usage from the hypervisor",
	Args:  cobra.ExactArgs(1),
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	id, err := mgr.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	u, err := mgr.Monitor(ctx, id)
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	fmt.Printf("Status:  %s\n", u.Status)
	fmt.Printf("CPU:     %.1f%%\n", u.CPUPercent)
	fmt.Printf("Memory:  %s / %s (%.1f%%)\n", units.BytesSize(float64(u.MemoryUsed)), units.BytesSize(float64(u.MemoryTotal)), u.MemoryPercent)
	fmt.Printf("Disk:    %s / %s\n", units.BytesSize(float64(u.DiskUsed)), units.BytesSize(float64(u.DiskTotal)))
	fmt.Printf("Net:     in %s, out %s\n", units.BytesSize(float64(u.NetIn)), units.BytesSize(float64(u.NetOut)))
	fmt.Printf("Uptime:  %s\n", time.Duration(u.UptimeSeconds)*time.Second)
	return nil
}
