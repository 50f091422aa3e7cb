package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BYEONGHWALEE-dev/cloud-service/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version, git revision, and build timestamp",
	// No config needed.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(version.String())
	},
}
