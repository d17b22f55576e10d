package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/clankers-dev/clankers/internal/logging"
	"github.com/clankers-dev/clankers/internal/paths"
	"github.com/clankers-dev/clankers/internal/rpc"
	"github.com/clankers-dev/clankers/internal/storage"
	"github.com/clankers-dev/clankers/internal/transport"
	"github.com/spf13/cobra"
)

// filteredLogWriter drops the benign connection-teardown noise jsonrpc2
// and net emit on every peer disconnect, so stderr fallback logging
// doesn't drown in expected errors.
type filteredLogWriter struct {
	w io.Writer
}

func (f *filteredLogWriter) Write(p []byte) (n int, err error) {
	s := string(p)
	if strings.Contains(s, "connection reset by peer") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "jsonrpc2: protocol error") && strings.Contains(s, "read unix") {
		return len(p), nil
	}
	return f.w.Write(p)
}

func daemonCmd() *cobra.Command {
	var (
		socketPath string
		dataRoot   string
		dbPath     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the background daemon",
		Long: `Run the Clankers daemon that listens for plugin connections
and stores session telemetry to the local database.

The daemon listens on a Unix domain socket (macOS/Linux) or a named pipe
(Windows) and accepts length-prefixed JSON-RPC 2.0 requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(&filteredLogWriter{w: os.Stderr})

			if dataRoot != "" {
				os.Setenv("CLANKERS_DATA_PATH", dataRoot)
			}
			if dbPath != "" {
				os.Setenv("CLANKERS_DB_PATH", dbPath)
			}
			if socketPath == "" {
				socketPath = paths.GetSocketPath()
			}

			logger, err := logging.New(logLevel, paths.GetLogDir())
			if err != nil {
				log.Printf("failed to initialize logger: %v", err)
				log.Printf("falling back to stderr logging only")
			} else {
				defer logger.Close()
				logger.Infof("daemon", "daemon starting with log level %s", logLevel)
			}

			cleanupStop := logging.StartCleanupJob(paths.GetLogDir())
			defer close(cleanupStop)

			resolvedDbPath := paths.GetDbPath()
			created, err := storage.EnsureDb(resolvedDbPath)
			if err != nil {
				return fmt.Errorf("failed to ensure database: %w", err)
			}
			if created {
				if logger != nil {
					logger.Infof("daemon", "created database at %s", resolvedDbPath)
				} else {
					log.Printf("created database at %s", resolvedDbPath)
				}
			}

			store, err := storage.Open(resolvedDbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			listener, err := transport.Listen(socketPath)
			if err != nil {
				return err
			}
			if logger != nil {
				logger.Infof("daemon", "listening on %s", socketPath)
			} else {
				log.Printf("listening on %s", socketPath)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				if logger != nil {
					logger.Infof("daemon", "shutting down...")
				} else {
					log.Println("shutting down...")
				}
				cancel()
			}()

			handler := rpc.NewHandler(store, logger)
			return transport.Serve(ctx, listener, handler)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "socket path (default: <data root>/clankers/dxta-clankers.sock; a named pipe on Windows)")
	cmd.Flags().StringVar(&dataRoot, "data-root", "", "data root directory (overrides CLANKERS_DATA_PATH)")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "database file path (overrides CLANKERS_DB_PATH)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}
