package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/docschema/internal/config"
	"github.com/usestring/docschema/pkg/mcpsrv"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var maxCollections int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Serve runs a Model Context Protocol server on stdin/stdout. Clients
ingest documents into named collections and read the inferred schemas
through the docschema_* tools and docschema:// resources.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			g.apply(cfg)
			if cmd.Flags().Changed("max-collections") {
				cfg.MaxCollections = maxCollections
			}

			server, err := mcpsrv.NewServer(mcpsrv.WithConfig(cfg))
			if err != nil {
				return err
			}
			defer server.Close()

			slog.Info("starting docschema MCP server on stdio",
				slog.String("version", version),
				slog.Int("max_collections", cfg.MaxCollections),
				slog.Int("sample_size", cfg.SampleSize),
			)
			if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&maxCollections, "max-collections", config.DefaultMaxCollectionsValue, "Collections kept in memory before eviction")
	return cmd
}
