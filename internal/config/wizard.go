package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the connection settings interactively, saves the
// result to path and returns it. Values already in base become the
// defaults.
func RunWizard(path string, base *Config) (*Config, error) {
	fmt.Println("Welcome to aiqa! Let's configure your bot.")
	fmt.Println()

	cfg := *base

	var err error
	// 1. Completion API.
	if cfg.BaseURL, err = ask("OpenAI-compatible base URL", orDefault(cfg.BaseURL, "https://api.openai.com/v1"), validateURL); err != nil {
		return nil, err
	}
	keyPrompt := promptui.Prompt{
		Label:    "API key",
		Mask:     '*',
		Validate: required,
	}
	if cfg.APIKey, err = keyPrompt.Run(); err != nil {
		return nil, fmt.Errorf("api key: %w", err)
	}
	if cfg.ModelName, err = ask("Model name", orDefault(cfg.ModelName, "gpt-4o-mini"), required); err != nil {
		return nil, err
	}

	// 2. Trigger character.
	if cfg.Cmd, err = ask("Command character", orDefault(cfg.Cmd, DefaultCmd), validateCmd); err != nil {
		return nil, err
	}

	// 3. OneBot host.
	if cfg.OneBotURL, err = ask("OneBot WebSocket URL", cfg.OneBotURL, validateURL); err != nil {
		return nil, err
	}
	if cfg.AccessToken, err = ask("OneBot access token (blank for none)", cfg.AccessToken, nil); err != nil {
		return nil, err
	}
	admin := ""
	if cfg.AdminID != 0 {
		admin = strconv.FormatInt(cfg.AdminID, 10)
	}
	if admin, err = ask("Admin QQ id for startup alerts (blank for none)", admin, validateID); err != nil {
		return nil, err
	}
	cfg.AdminID = 0
	if admin != "" {
		cfg.AdminID, _ = strconv.ParseInt(admin, 10, 64)
	}

	// 4. Rendering.
	highlight := promptui.Select{
		Label: "Code highlighting",
		Items: []string{
			"client — highlight.js inside the page",
			"server — chroma while rendering",
		},
	}
	idx, _, err := highlight.Run()
	if err != nil {
		return nil, fmt.Errorf("highlight selection: %w", err)
	}
	cfg.ServerHighlight = idx == 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return &cfg, nil
}

func ask(label, def string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	return v, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func required(s string) error {
	if s == "" {
		return errors.New("value is required")
	}
	return nil
}

func validateCmd(s string) error {
	if utf8.RuneCountInString(s) != 1 {
		return errors.New("enter exactly one character")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter an absolute URL")
	}
	return nil
}

func validateID(s string) error {
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("enter a numeric id")
	}
	return nil
}
