package cli

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/sessfile/internal/observability"
	"github.com/harun/sessfile/internal/tracing"
	"github.com/harun/sessfile/pkg/store"
	"github.com/harun/sessfile/pkg/workdir"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stdio MCP server",
	Long: `Runs an MCP server over stdin/stdout exposing the working-directory
tools bound to one session of the shared store. stdout carries the protocol
stream; set SESSFILE_LOG_LOCATION to capture logs in a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// stdout is the wire; never log to console while serving.
		lg, err := setupLogger(cfg, false)
		if err != nil {
			return err
		}
		defer lg.Close()

		if err := tracing.InitOpenTelemetry(cfg.Server.Name); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := tracing.ShutdownOpenTelemetry(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Failed to shut down tracing")
			}
		}()

		st, err := openStore(cfg, true)
		if err != nil {
			return err
		}
		defer st.Close()

		if cfg.Retention.Enabled {
			cleaner, err := store.NewCleaner(st, cfg.Retention.Schedule, workdir.ShouldPrune)
			if err != nil {
				return err
			}
			if err := cleaner.Start(); err != nil {
				return err
			}
			defer func() {
				if err := cleaner.Stop(); err != nil {
					log.Warn().Err(err).Msg("Failed to stop session cleaner")
				}
			}()
		}

		if addr := cfg.Observability.MetricsAddr; addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.MetricsHandler())
			go func() {
				if err := http.ListenAndServe(addr, mux); err != nil {
					log.Warn().Err(err).Str("addr", addr).Msg("Metrics listener stopped")
				}
			}()
			log.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
		}

		server := mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Server.Name,
			Version: version,
		}, &mcp.ServerOptions{
			Instructions: cfg.Server.Instructions,
		})
		workdir.AddTools(server, st, cfg.Server.SessionID)

		log.Info().
			Str("server", cfg.Server.Name).
			Str("session_key", cfg.Server.SessionID).
			Str("path", cfg.Storage.Path).
			Msg("Serving MCP over stdio")

		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
