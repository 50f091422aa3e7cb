package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BYEONGHWALEE-dev/cloud-service/vm"
)

var stopCmd = &cobra.Command{
	Use:   "stop VM [VM...]",
	Short: "Stop running VM(s)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return batchVMCmd(commandContext(cmd), "stop", "stopped", (*vm.Manager).StopAll, args)
	},
}
