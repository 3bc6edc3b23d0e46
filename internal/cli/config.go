// config.go implements the "resume-ssh config" command that prints or saves
// the effective configuration.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults, the --config file and
RESUME_SSH_* variables are applied. With --write, save it as YAML instead.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var writeFlag string

func init() {
	configCmd.Flags().StringVar(&writeFlag, "write", "", "Write the effective configuration to this path")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if writeFlag != "" {
		if err := config.WriteConfig(writeFlag, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", writeFlag)
		return nil
	}
	return printConfig(cmd.OutOrStdout(), cfg)
}

func printConfig(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

