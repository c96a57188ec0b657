package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargehub/auth"
	"github.com/kilianp07/chargehub/config"
	"github.com/kilianp07/chargehub/connectors"
	"github.com/kilianp07/chargehub/connectors/factory"
	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/infra/logger"
	"github.com/kilianp07/chargehub/pkg/export"
)

var (
	pricesStart string
	pricesDays  int
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Download day-ahead prices into the price table",
	RunE:  fetchPrices,
}

func init() {
	pricesCmd.Flags().StringVar(&pricesStart, "start", "", "first day (RFC 3339), defaults to the schedule origin")
	pricesCmd.Flags().IntVar(&pricesDays, "days", 7, "number of days")
	rootCmd.AddCommand(pricesCmd)
}

func fetchPrices(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	start, err := cfg.Schedule.OriginTime()
	if err != nil {
		return err
	}
	if pricesStart != "" {
		if start, err = time.Parse(time.RFC3339, pricesStart); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if start.IsZero() {
		return fmt.Errorf("start is required, set --start or schedule.origin")
	}
	if pricesDays <= 0 {
		return fmt.Errorf("days must be positive")
	}
	end := start.AddDate(0, 0, pricesDays)

	httpClient := auth.HTTPClient(ctx, cfg.PriceAPI.Auth, &http.Client{Timeout: 30 * time.Second})
	src, err := factory.NewPriceSource(cfg.PriceAPI.Source, cfg.PriceAPI.BaseURL, httpClient)
	if err != nil {
		return err
	}
	intervals, err := src.Fetch(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	steps := int(end.Sub(start) / (model.StepMinutes * time.Minute))
	prices, err := connectors.ToSteps(intervals, start, steps)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Input.Prices)
	if err != nil {
		return err
	}
	if err := export.WritePrices(f, prices); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.New("prices").Infof("wrote %d prices to %s", len(prices), cfg.Input.Prices)
	return nil
}
