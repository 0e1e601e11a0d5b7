package main

import (
	"context"
	"errors"
	"time"

	"ChainKit/internal/api"
	"ChainKit/internal/observability/metrics"
	"ChainKit/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := a.cfg

			if addr == "" {
				addr = cfg.Server.Address
			}
			separateMetrics := cfg.Metrics.Enabled && cfg.Metrics.Address != ""
			server := api.NewServer(addr, a.factory, a.aggregator,
				api.WithRequestTimeout(time.Duration(cfg.Server.RequestTimeoutSeconds)*time.Second),
				api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
				api.WithMetrics(cfg.Metrics.Enabled && !separateMetrics),
			)

			if separateMetrics {
				go func() {
					if err := metrics.StartServer(ctx, cfg.Metrics.Address); err != nil && !errors.Is(err, context.Canceled) {
						logger.L().Error("指标服务异常退出", "error", err)
					}
				}()
			}

			if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}
