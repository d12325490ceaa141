package config

import "time"

// Config is the top-level codegram configuration, corresponding to
// .codegram.yml.
type Config struct {
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Preview PreviewConfig `yaml:"preview" koanf:"preview"`
	Log     LogConfig     `yaml:"log" koanf:"log"`
	Demo    DemoConfig    `yaml:"demo" koanf:"demo"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host     string `yaml:"host" koanf:"host"`
	Port     int    `yaml:"port" koanf:"port"`
	AllowAll bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Open     bool   `yaml:"open" koanf:"open"`
}

// PreviewConfig tunes the live preview pipeline.
type PreviewConfig struct {
	Debounce        time.Duration `yaml:"debounce" koanf:"debounce"`
	SettleDelay     time.Duration `yaml:"settle_delay" koanf:"settle_delay"`
	DefaultViewport string        `yaml:"default_viewport" koanf:"default_viewport"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"` // "json" or "console"
}

// DemoConfig controls the in-memory data the server starts with.
type DemoConfig struct {
	FakePosts int      `yaml:"fake_posts" koanf:"fake_posts"`
	Seed      int64    `yaml:"seed" koanf:"seed"`
	ImportDir string   `yaml:"import_dir" koanf:"import_dir"`
	Include   []string `yaml:"include" koanf:"include"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
}
