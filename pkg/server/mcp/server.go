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

package mcp

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/jeremyhahn/go-s3mcp/pkg/adapters"
	"github.com/jeremyhahn/go-s3mcp/pkg/common"
	"github.com/jeremyhahn/go-s3mcp/pkg/config"
	"github.com/jeremyhahn/go-s3mcp/pkg/server/middleware"
	"github.com/sourcegraph/jsonrpc2"
)

// ServerMode defines the transport mode for the MCP server
type ServerMode string

const (
	// ModeStdio runs the server over stdin/stdout
	ModeStdio ServerMode = "stdio"
	// ModeHTTP runs the server over HTTP
	ModeHTTP ServerMode = "http"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Mode        ServerMode
	HTTPAddress string
	Storage     common.Storage
	Limits      config.SecurityLimits

	// Logger is the pluggable logger adapter (default: DefaultLogger).
	// Stdio mode logs to stderr only; stdout carries the protocol stream.
	Logger adapters.Logger

	// RateLimit configures HTTP request throttling (default: global limit).
	// Not used for stdio mode.
	RateLimit *middleware.RateLimitConfig
}

// Server is the main MCP server
type Server struct {
	config       *ServerConfig
	toolRegistry *ToolRegistry
	toolExecutor *ToolExecutor
}

// NewServer creates a new MCP server
func NewServer(config *ServerConfig) (*Server, error) {
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}

	if config.Logger == nil {
		config.Logger = adapters.NewDefaultLogger("info")
	}

	if config.RateLimit == nil {
		config.RateLimit = middleware.DefaultRateLimitConfig()
	}

	toolRegistry := NewToolRegistry()
	toolRegistry.RegisterDefaultTools()

	toolExecutor := NewToolExecutor(config.Storage, config.Limits, config.Logger)

	return &Server{
		config:       config,
		toolRegistry: toolRegistry,
		toolExecutor: toolExecutor,
	}, nil
}

// Start starts the MCP server and blocks until the context is cancelled or
// the transport fails.
func (s *Server) Start(ctx context.Context) error {
	switch s.config.Mode {
	case ModeStdio:
		return s.startStdio(ctx)
	case ModeHTTP:
		return s.startHTTP(ctx)
	default:
		return ErrUnknownServerMode
	}
}

// startStdio starts the server in stdio mode
func (s *Server) startStdio(ctx context.Context) error {
	s.config.Logger.Info(ctx, "Starting MCP server in stdio mode")

	handler := NewRPCHandler(s)

	stream := jsonrpc2.NewBufferedStream(&stdioReadWriteCloser{
		reader: os.Stdin,
		writer: os.Stdout,
	}, jsonrpc2.VSCodeObjectCodec{})

	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(handler.Handle))

	select {
	case <-ctx.Done():
		_ = conn.Close()
	case <-conn.DisconnectNotify():
	}
	s.config.Logger.Info(ctx, "MCP server (stdio mode) stopped")
	return nil
}

// startHTTP starts the server in HTTP mode
func (s *Server) startHTTP(ctx context.Context) error {
	address := s.config.HTTPAddress
	if address == "" {
		address = ":8081"
	}

	mux := http.NewServeMux()

	// Health endpoint bypasses rate limiting so probes stay cheap
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	jsonrpcHandler := NewHTTPHandler(s)
	mux.Handle("/", middleware.RequestID(middleware.RateLimit(s.config.RateLimit)(jsonrpcHandler)))

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second, // Prevent slowloris attacks
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		listener, err := net.Listen("tcp", address)
		if err != nil {
			errChan <- err
			return
		}

		s.config.Logger.Info(ctx, "Starting MCP server in HTTP mode",
			adapters.Field{Key: "address", Value: address},
		)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.config.Logger.Info(ctx, "Stopping MCP server (HTTP mode)")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// ListTools returns all available tools
func (s *Server) ListTools() []Tool {
	return s.toolRegistry.ListTools()
}

// CallTool executes a tool
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if _, ok := s.toolRegistry.GetTool(name); !ok {
		return "", newToolError(CodeUnknownTool, "unknown tool: %s", name)
	}

	return s.toolExecutor.Execute(ctx, name, args)
}

// stdioReadWriteCloser wraps stdin/stdout for use with jsonrpc2
type stdioReadWriteCloser struct {
	reader io.Reader
	writer io.Writer
}

func (rw *stdioReadWriteCloser) Read(p []byte) (int, error) {
	return rw.reader.Read(p)
}

func (rw *stdioReadWriteCloser) Write(p []byte) (int, error) {
	return rw.writer.Write(p)
}

func (rw *stdioReadWriteCloser) Close() error {
	// Don't actually close stdin/stdout
	return nil
}
