package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/BYEONGHWALEE-dev/cloud-service/config"
	"github.com/BYEONGHWALEE-dev/cloud-service/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Reconcile VM status periodically and expose /metrics",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("metrics-addr", "", "metrics listen address (overrides config)")
	return cmd
}()

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	logger := log.WithFunc("cmd.serve")

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		conf.MetricsAddr = addr
	}
	mgr, store, err := initManager()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	rec := mgr.NewReconciler()
	if viper.ConfigFileUsed() != "" {
		current := conf.ReconcileInterval()
		viper.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			next := config.DefaultConfig()
			if err := loadConfig(next); err != nil {
				logger.Warnf(ctx, "ignoring config change in %s: %v", e.Name, err)
				return
			}
			if d := next.ReconcileInterval(); d != current {
				current = d
				rec.SetInterval(d)
			}
		})
		viper.WatchConfig()
	}

	srv := metrics.NewServer(conf.MetricsAddr)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rec.Run(gctx, conf.ReconcileInterval())
	})
	g.Go(func() error {
		logger.Infof(ctx, "metrics listening on %s", conf.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
