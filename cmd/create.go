package cmd

import (
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

var createCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [flags]",
		Short: "Provision a VM by cloning the template",
		Args:  cobra.NoArgs,
		RunE:  runCreate,
	}
	cmd.Flags().String("owner", "", "owning member ID")
	cmd.Flags().String("name", "", "VM name (hostname label)")
	cmd.Flags().Int("cpu", 2, "CPU cores")              //nolint:mnd
	cmd.Flags().String("memory", "2G", "memory size")   //nolint:mnd
	cmd.Flags().String("disk", "20G", "root disk size") //nolint:mnd
	cmd.Flags().String("ssh-key-file", "", "authorized_keys line to inject via cloud-init")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}()

func runCreate(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	logger := log.WithFunc("cmd.create")

	req, err := createRequestFromFlags(cmd)
	if err != nil {
		return err
	}

	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	res, err := mgr.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if res.Status == types.VMStatusError {
		logger.Warnf(ctx, "VM %d created degraded: %s", res.ID, res.Reason)
	} else {
		logger.Infof(ctx, "VM %d created: %s", res.ID, res.Name)
	}
	fmt.Printf("ID: %d\nRemote ID: %d\nName: %s\nAddress: %s\nStatus: %s\n", res.ID, res.RemoteID, res.Name, res.Address, res.Status)
	if res.Reason != "" {
		fmt.Printf("Reason: %s\n", res.Reason)
	}
	return nil
}

func createRequestFromFlags(cmd *cobra.Command) (*types.CreateRequest, error) {
	owner, _ := cmd.Flags().GetString("owner")
	name, _ := cmd.Flags().GetString("name")
	cpu, _ := cmd.Flags().GetInt("cpu")
	memStr, _ := cmd.Flags().GetString("memory")
	diskStr, _ := cmd.Flags().GetString("disk")
	keyFile, _ := cmd.Flags().GetString("ssh-key-file")

	memMB, err := sizeIn("memory", memStr, units.MiB)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	diskGB, err := sizeIn("disk", diskStr, units.GiB)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrValidation, err)
	}

	req := &types.CreateRequest{
		OwnerID:  owner,
		Name:     name,
		CPUCores: cpu,
		MemoryMB: memMB,
		DiskGB:   diskGB,
	}
	if keyFile != "" {
		key, err := os.ReadFile(keyFile) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("read --ssh-key-file: %w", err)
		}
		req.SSHPublicKey = string(key)
	}
	return req, nil
}
