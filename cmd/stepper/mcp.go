package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/pkg/adapters/mcp"
	"github.com/aretw0/stepper/pkg/session"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Stepper as an MCP Server.
This allows AI agents to generate traces, render frames and drive playback sessions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")

		// Ensure logs don't corrupt JSON-RPC on Stdout
		logger := cli.NewLogger(cfg.Log, debug, false)
		log.SetOutput(os.Stderr)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		hub, closeHub, err := openHub(sc, cfg, logger, session.WithInterval(cfg.Playback.Interval))
		if err != nil {
			return err
		}
		defer closeHub()

		opts := []mcp.Option{mcp.WithHub(hub), mcp.WithLogger(logger)}
		if lessons := openLessons(cfg, logger); lessons != nil {
			opts = append(opts, mcp.WithLessons(lessons))
		}
		srv := mcp.NewServer(opts...)

		switch transport {
		case "stdio":
			logger.Info("Starting Stepper MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Stepper MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(sc, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
