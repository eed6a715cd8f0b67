package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aiqa",
	Short: "Group-chat question answering bot that replies with rendered Markdown",
	Long: `aiqa connects to a OneBot v11 host, answers questions that start with the
configured command character through an OpenAI-compatible chat API, and
replies either with text or with a PNG of the answer rendered as Markdown
in headless Chrome.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default data/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
