package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargehub/api/results"
	"github.com/kilianp07/chargehub/config"
	"github.com/kilianp07/chargehub/infra/logger"
	"github.com/kilianp07/chargehub/infra/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results over HTTP",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := store.New(cfg.Output.Backend, cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("result store: %w", err)
	}
	log := logger.New("api")
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("store close: %v", err)
		}
	}()

	router := results.NewRouter(st, cfg.API.Token)
	h := handlers.LoggingHandler(os.Stdout, handlers.RecoveryHandler()(router))
	srv := &http.Server{Addr: cfg.API.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("api shutdown: %v", err)
		}
	}()
	log.Infof("serving results on %s", cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
