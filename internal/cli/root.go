// Package cli defines Cobra command definitions for the resume-ssh CLI.
// This file contains the root command, version flag and shared helpers.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/config"
)

var (
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "resume-ssh",
	Short: "Serve an interactive résumé over SSH",
	Long: `resume-ssh runs an SSH server that greets every visitor with a
résumé and a small shell of commands (help, skills, experience, ...).
No account is needed: any user name, password or key is accepted.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig builds the effective configuration from --config and the
// process environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath, os.LookupEnv)
}
