package cli

import (
	"fmt"
	"os"

	"github.com/harun/sessfile/internal/config"
	"github.com/harun/sessfile/internal/logger"
	"github.com/harun/sessfile/pkg/store"
	"github.com/harun/sessfile/pkg/workdir"
)

// logLocationEnv names the environment variable that redirects logs to a
// file. Stdio tool servers own stdout, so clients point this at a log file
// instead of relying on console output.
const logLocationEnv = "SESSFILE_LOG_LOCATION"

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if location := os.Getenv(logLocationEnv); location != "" {
		cfg.Logging.File = location
	}
	if sessionID != "" {
		cfg.Server.SessionID = sessionID
	}

	return cfg, nil
}

func setupLogger(cfg *config.Config, console bool) (*logger.Logger, error) {
	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: console && cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return lg, nil
}

func openStore(cfg *config.Config, watch bool) (*store.Store[workdir.State], error) {
	return store.New[workdir.State](store.Options[workdir.State]{
		Path:  cfg.Storage.Path,
		Watch: watch && cfg.Storage.Watch,
	})
}
