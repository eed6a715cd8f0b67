package cmd

import (
	"context"
	"log"

	"github.com/ziadkadry99/aiqa/internal/config"
	"github.com/ziadkadry99/aiqa/internal/llm"
	"github.com/ziadkadry99/aiqa/internal/onebot"
	"github.com/ziadkadry99/aiqa/internal/render"
	"github.com/ziadkadry99/aiqa/internal/theme"
)

// configPath returns the --config flag or the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath(config.DefaultDataDir)
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Settings{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.ModelName,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
}

// newSession launches the headless browser described by cfg.
func newSession(cfg *config.Config) (*render.Session, error) {
	launch := render.ChromeLauncher(render.ChromeOptions{
		ExecPath:  cfg.ChromePath,
		NoSandbox: cfg.NoSandbox,
	})
	return render.NewSession(launch, render.WithWaitTimeout(cfg.Wait()))
}

func newAssembler(cfg *config.Config) *render.Assembler {
	return render.NewAssembler(render.WithServerHighlight(cfg.ServerHighlight))
}

// notifyAdmin sends text to the configured admin, if any.
func notifyAdmin(ctx context.Context, client *onebot.Client, cfg *config.Config, text string) {
	if client == nil || cfg.AdminID == 0 {
		return
	}
	if _, err := client.SendPrivateMsg(ctx, cfg.AdminID, onebot.Message{onebot.Text(text)}); err != nil {
		log.Printf("aiqa: notifying admin: %v", err)
	}
}

// fixedTheme is a ThemeSource that never changes.
type fixedTheme theme.Theme

func (f fixedTheme) Current() theme.Theme { return theme.Theme(f) }
