package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"gaia-relay/llamagate/pkg/cli"
	"gaia-relay/llamagate/pkg/config"
)

const (
	defaultConfigFile = "llamagate.yaml"
	defaultEnvFile    = ".env"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "llamagate",
	Short: "llamagate - chat-completions forwarding shim",
	Long: `llamagate accepts POST /v1/chat/completions on a local address, injects
fixed generation controls and forwards the conversation to the gaia llama
endpoint, relaying the upstream JSON answer to the caller.

Running llamagate without a subcommand starts the server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before environment overrides")

	// The bare command accepts the run flags too.
	addRunFlags(rootCmd)
}

// loadConfig resolves the configuration file, loads the dotenv file and
// returns the configuration with environment overrides applied, together
// with the path it was read from ("" for built-in defaults).
//
// A missing file at the default location means built-in defaults; a missing
// file named explicitly with --config is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, "", cli.NewConfigError("env-file", err.Error())
	}

	path := cfgFile
	if !cmd.Flags().Changed("config") && path == defaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, "", cli.NewConfigError("config", err.Error())
	}
	return cfg, path, nil
}
