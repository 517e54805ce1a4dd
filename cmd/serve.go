package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/api"
)

var (
	servePort     int
	serveScenario string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scan API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initScanEnv(ctx, serveScenario)
		if err != nil {
			return err
		}
		defer env.Close()

		var health api.HealthChecker
		if env.Client != nil {
			health = env.Client
		}
		server := api.NewServer(env.Scanner, cfg.Scan, env.Cache, health)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "", "scenario YAML file (offline, bypasses the profile service)")
	rootCmd.AddCommand(serveCmd)
}
