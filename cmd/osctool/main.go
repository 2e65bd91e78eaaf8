package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/osckit/go-osc/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "osctool",
		Short: "Send, receive and inspect Open Sound Control packets",
		Long: `osctool speaks Open Sound Control over UDP, SLIP framed TCP and
WebSocket.

  • serve   receive packets and log them, with Prometheus metrics
  • send    build one message (optionally in a bundle) and send it
  • decode  decode hex dumps of packets or SLIP streams`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configureLogging("", "")
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		serveCmd(opts),
		sendCmd(),
		decodeCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// configureLogging installs the global logger. Flags win over the given
// level and format, which usually come from a config file.
func (o *rootOptions) configureLogging(level, format string) error {
	cfg := logging.DefaultConfig()
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	if o.logLevel != "" {
		cfg.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Format = o.logFormat
	}
	_, err := logging.Configure(cfg, "osctool")
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "osctool %s (%s) %s %s/%s\n",
				version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
