package config

// Config is the bot configuration, stored as JSON in <data_dir>/config.json.
// A path ending in .yaml or .yml is read and written as YAML instead.
type Config struct {
	APIKey    string `json:"apikey" yaml:"apikey" koanf:"apikey"`
	BaseURL   string `json:"base_url" yaml:"base_url" koanf:"base_url"`
	ModelName string `json:"model_name" yaml:"model_name" koanf:"model_name"`
	Cmd       string `json:"cmd" yaml:"cmd" koanf:"cmd"`

	DataDir           string `json:"data_dir" yaml:"data_dir" koanf:"data_dir"`
	OneBotURL         string `json:"onebot_url" yaml:"onebot_url" koanf:"onebot_url"`
	AccessToken       string `json:"access_token" yaml:"access_token" koanf:"access_token"`
	AdminID           int64  `json:"admin_id" yaml:"admin_id" koanf:"admin_id"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute" koanf:"requests_per_minute"`
	ServerHighlight   bool   `json:"server_highlight" yaml:"server_highlight" koanf:"server_highlight"`
	WaitTimeout       string `json:"wait_timeout" yaml:"wait_timeout" koanf:"wait_timeout"`
	History           bool   `json:"history" yaml:"history" koanf:"history"`
	StatusAddr        string `json:"status_addr" yaml:"status_addr" koanf:"status_addr"`
	StatusAllowAll    bool   `json:"status_allow_all" yaml:"status_allow_all" koanf:"status_allow_all"`
	ChromePath        string `json:"chrome_path" yaml:"chrome_path" koanf:"chrome_path"`
	NoSandbox         bool   `json:"no_sandbox" yaml:"no_sandbox" koanf:"no_sandbox"`
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.APIKey = mask(c.APIKey)
	out.AccessToken = mask(c.AccessToken)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
