package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ziadkadry99/aiqa/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize aiqa configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the chat API and OneBot connection settings and writes config.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		base, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading existing config: %w", err)
		}
		_, err = config.RunWizard(path, base)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
