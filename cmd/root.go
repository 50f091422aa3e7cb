package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cloudsvc",
		Short:         "cloudsvc - VM lifecycle engine for Proxmox VE",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("root-dir", "", "root data directory")
	cmd.PersistentFlags().String("store-driver", "", "record store: json or sqlite")

	_ = viper.BindPFlag("root_dir", cmd.PersistentFlags().Lookup("root-dir"))
	_ = viper.BindPFlag("store.driver", cmd.PersistentFlags().Lookup("store-driver"))

	viper.SetEnvPrefix("CLOUDSVC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// Unmarshal only sees env vars for keys viper already knows.
	for _, key := range []string{"proxmox.base_url", "proxmox.node", "proxmox.username", "proxmox.password"} {
		_ = viper.BindEnv(key)
	}

	cmd.AddCommand(
		memberCmd,
		createCmd,
		startCmd,
		stopCmd,
		rmCmd,
		psCmd,
		inspectCmd,
		monitorCmd,
		poolCmd,
		serveCmd,
		gcCmd,
		versionCmd,
	)

	return cmd
}()

func initConfig() error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	_ = viper.ReadInConfig() // optional; missing file is OK

	if err := loadConfig(conf); err != nil {
		return err
	}
	return log.SetupLog(context.Background(), &conf.Log, "")
}

// loadConfig overlays viper's view (file, env, flags) on conf and validates it.
func loadConfig(c *config.Config) error {
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if c.PoolSize <= 0 {
		c.PoolSize = runtime.NumCPU()
	}
	return c.Validate()
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
