package config

import "time"

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = ".codegram.yml"

// DefaultExcludes are glob patterns skipped when importing snippets.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"package-lock.json",
	"yarn.lock",
}

// DefaultIncludes are the snippet files picked up by an import.
var DefaultIncludes = []string{
	"**/*.{html,htm,css,js,jsx,ts,tsx}",
	"**/*.{go,py,rs,java,rb,md}",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Preview: PreviewConfig{
			Debounce:        300 * time.Millisecond,
			SettleDelay:     100 * time.Millisecond,
			DefaultViewport: "desktop",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Demo: DemoConfig{
			FakePosts: 0,
			Seed:      1,
			Include:   append([]string(nil), DefaultIncludes...),
			Exclude:   append([]string(nil), DefaultExcludes...),
		},
	}
}
