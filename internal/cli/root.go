// Package cli provides the command-line interface for tunevault.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tunevault/tunevault/internal/config"
	"github.com/tunevault/tunevault/internal/logging"
	"github.com/tunevault/tunevault/internal/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// loadConfig reads the config file named by --config, or the default
// location when the flag is unset.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tunevault",
		Short: "TuneVault - encrypted music streaming server and offline client",
		Long: `TuneVault ` + version.String() + `
Self-hosted music streaming with optional AES-256 encryption at rest.

Server mode:
  tunevault serve              Run the stream server

Client mode:
  tunevault songs              List the remote catalog
  tunevault download <id>      Cache a song for offline playback
  tunevault play <id>          Resolve a song to a playable source
  tunevault cache              Inspect or prune the offline cache

Key management:
  tunevault keygen             Generate a new encryption key
  tunevault encrypt / decrypt  Convert files to and from envelopes

The encryption key is read from TUNEVAULT_ENCRYPTION_KEY, the admin
bearer token from TUNEVAULT_API_TOKEN. Neither lives in the config file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.String()

	rootCmd.AddCommand(
		newServeCmd(),
		newSongsCmd(),
		newDownloadCmd(),
		newPlayCmd(),
		newCacheCmd(),
		newKeygenCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
	)

	return rootCmd
}

// Execute runs the CLI with signal-driven cancellation. SIGINT and SIGTERM
// cancel the root context so in-flight streams and downloads wind down
// instead of dying mid-write.
func Execute() {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		cancelFunc()
	}()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(rootContext); err != nil {
		os.Exit(1)
	}
}
