// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

type RootOptions struct {
	EnvFile   string
	TraceHTTP bool
	TraceBody bool
}

var rootOptions = &RootOptions{}

// config is populated before any subcommand runs.
var config Config

var rootCmd = &cobra.Command{
	Use:   "ezpark",
	Short: "find parking around events",
	Long: `
ezpark resolves event postal codes into map coordinates and driving routes
between postal codes, either one-shot from the terminal or behind a local
HTTP API.

Provider credentials are read from the environment (or a .env file):
ORS_API_KEY, GOOGLE_MAPS_API_KEY and EZPARK_DB_DSN.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		config, err = loadConfig(rootOptions.EnvFile, cmd.Flags().Changed("env-file"))

		return err
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.EnvFile,
		"env-file",
		".env",
		"file with environment variables to load before reading the configuration",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceHTTP,
		"trace-http",
		false,
		"log outgoing provider requests to stderr (keys are redacted)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceBody,
		"trace-body",
		false,
		"include request and response bodies in the HTTP trace",
	)
}
