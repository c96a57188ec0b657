package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargehub/app"
	"github.com/kilianp07/chargehub/config"
	"github.com/kilianp07/chargehub/infra/logger"
	"github.com/kilianp07/chargehub/infra/metrics"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "chargehub",
	Short: "Charging hub sizing and schedule optimisation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env entries feed the K_ configuration overrides.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(app.StageAll)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Size and schedule every configured scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(app.StageAll)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, starts the metrics endpoint when
// configured and hands a ready service to fn.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	log := logger.New("main")
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.StartPromServer(srvCtx, addr, nil); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	return fn(ctx, svc)
}

func runStage(stage app.Stage) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		return svc.Run(ctx, stage)
	})
}
