// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3mcp.
//
// go-s3mcp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-s3mcp/pkg/adapters"
	"github.com/jeremyhahn/go-s3mcp/pkg/common"
	"github.com/jeremyhahn/go-s3mcp/pkg/config"
	"github.com/jeremyhahn/go-s3mcp/pkg/memory"
	"github.com/jeremyhahn/go-s3mcp/pkg/s3"
	mcpserver "github.com/jeremyhahn/go-s3mcp/pkg/server/mcp"
	"github.com/jeremyhahn/go-s3mcp/pkg/version"
)

var (
	cfgFile string
	mode    string
	addr    string
	backend string
)

var rootCmd = &cobra.Command{
	Use:     "s3mcp-server",
	Short:   "MCP server exposing S3 object storage tools",
	Long:    "s3mcp-server exposes upload, download, list, info and delete tools for an S3-compatible bucket over the Model Context Protocol, in stdio or HTTP mode.",
	Version: version.Get(),
	RunE:    run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.s3mcp.yaml)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "server mode: stdio or http (overrides config)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "s3", "storage backend: s3 or memory")
}

func run(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if mode != "" {
		settings.Mode = mode
	}
	if addr != "" {
		settings.Address = addr
	}

	logger := adapters.NewDefaultLogger(settings.LogLevel)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info(ctx, "Received signal, shutting down",
			adapters.Field{Key: "signal", Value: sig.String()})
		cancel()
	}()

	var storage common.Storage
	switch backend {
	case "memory":
		// In-memory backend for local development; skips bucket validation
		storage = memory.New()
	case "s3":
		if err := settings.Validate(); err != nil {
			return err
		}
		storage, err = s3.New(ctx, settings)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 backend: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend %q (must be 's3' or 'memory')", backend)
	}

	logger.Info(ctx, "Storage backend initialized",
		adapters.Field{Key: "backend", Value: backend},
		adapters.Field{Key: "bucket", Value: settings.Bucket})

	server, err := mcpserver.NewServer(&mcpserver.ServerConfig{
		Mode:        mcpserver.ServerMode(settings.Mode),
		HTTPAddress: settings.Address,
		Storage:     storage,
		Limits:      settings.Limits,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "MCP server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
