package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Keksclan/mealsquirrel"
	"github.com/Keksclan/mealsquirrel/internal/config"
	"github.com/Keksclan/mealsquirrel/internal/logging"
	"github.com/Keksclan/mealsquirrel/internal/metrics"
	"github.com/Keksclan/mealsquirrel/tracing"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		grpcAddr   string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recipe proxy",
		Long:  "Run the HTTP API (and the gRPC service when an address is configured) until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath, listenAddr, grpcAddr, logLevel)
			if err != nil {
				return err
			}
			if err := logging.Configure(os.Stderr, cfg.Log.Format, cfg.Log.Level); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tc, shutdownTracing, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
				Exporter:    cfg.Tracing.Exporter,
				ServiceName: "mealsquirrel",
				Writer:      os.Stdout,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logging.Op().Warn("tracing shutdown failed", "error", err)
				}
			}()

			opts, err := mealsquirrel.FromConfig(cfg)
			if err != nil {
				return err
			}
			opts = append(opts,
				mealsquirrel.WithMetrics(metrics.New("mealsquirrel")),
				mealsquirrel.WithTracing(tc),
			)

			srv, err := mealsquirrel.NewServer(opts...)
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}
			defer srv.Close()

			if cfg.Admin.Token == "" {
				logging.Op().Warn("ADMIN_TOKEN is not set; admin routes are unauthenticated")
			}
			logging.Op().Info("mealsquirrel starting",
				"http", cfg.HTTP.Addr,
				"grpc", cfg.GRPC.Addr,
				"cache_backend", cfg.Cache.Backend,
				"cache_ttl", cfg.Cache.TTL,
				"cache_max_size", cfg.Cache.MaxSize,
			)
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("mealsquirrel: %w", err)
			}
			logging.Op().Info("mealsquirrel stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config and PORT)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-listen", "", "gRPC listen address (overrides config and GRPC_ADDR)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides config and LOG_LEVEL)")

	return cmd
}

// loadConfig loads the file and environment configuration and applies the
// flags the user set explicitly on top.
func loadConfig(cmd *cobra.Command, path, listen, grpcListen, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("listen") {
		cfg.HTTP.Addr = listen
	}
	if cmd.Flags().Changed("grpc-listen") {
		cfg.GRPC.Addr = grpcListen
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
