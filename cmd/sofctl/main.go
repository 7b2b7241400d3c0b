// Command sofctl uploads SoF documents to the relay and exports the results.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sof-extractor/backend/internal/client"
	"github.com/sof-extractor/backend/internal/config"
	"github.com/sof-extractor/backend/internal/logging"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sofctl",
		Short: "Extract events from Statement of Facts documents",
		Long: `sofctl submits Statement of Facts documents to the SoF extractor relay,
prints the extracted events per file and exports them as JSON, CSV or msgpack.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("server") {
				if env := os.Getenv("SOF_SERVER"); env != "" {
					opts.server = env
				}
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logging.Configure(level, "text").SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", "http://localhost:8000", "Relay base URL (or set SOF_SERVER env)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "Upload timeout")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newUploadCmd(opts))
	rootCmd.AddCommand(newExportCmd())
	return rootCmd
}

func logger() *logrus.Logger {
	return logging.GetLogger()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
