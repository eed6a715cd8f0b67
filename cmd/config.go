package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/aiqa/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration aiqa would run with, after environment
overrides (AIQA_*), as YAML. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		out, err := yamlv3.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}
		fmt.Printf("# %s\n%s", path, out)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
