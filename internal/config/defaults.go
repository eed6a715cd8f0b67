package config

import "path/filepath"

const (
	// DefaultCmd triggers the bot when it starts a message.
	DefaultCmd = "%"
	// DefaultDataDir holds config.json, output.html and the request log.
	DefaultDataDir = "data"
	// FileName is the config file inside the data directory.
	FileName = "config.json"
)

// DefaultConfig returns a Config with every optional key at its default.
// The API key, base URL and model are left empty.
func DefaultConfig() *Config {
	return &Config{
		Cmd:         DefaultCmd,
		DataDir:     DefaultDataDir,
		OneBotURL:   "ws://127.0.0.1:3001",
		WaitTimeout: "10s",
		History:     true,
	}
}

// DefaultPath returns the config file path inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}
