package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BYEONGHWALEE-dev/cloud-service/vm"
)

var rmCmd = &cobra.Command{
	Use:   "rm VM [VM...]",
	Short: "Delete VM(s); running VMs are stopped first",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return batchVMCmd(commandContext(cmd), "rm", "deleted", (*vm.Manager).DeleteAll, args)
	},
}
