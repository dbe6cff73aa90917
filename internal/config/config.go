// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Tiles   TilesConfig   `yaml:"tiles"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// TilesConfig holds block palette settings.
type TilesConfig struct {
	Size             int  `yaml:"size"`              // Tile edge in pixels
	TransparentIndex int  `yaml:"transparent_index"` // Palette index treated as empty
	UseAlpha         bool `yaml:"use_alpha"`         // Sample alpha instead of the palette key
	Workers          int  `yaml:"workers"`           // 0 = one per CPU
}

// CacheConfig holds collision cache settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	AppName string `yaml:"app_name"` // Storage namespace
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tiles: TilesConfig{
			Size:             32,
			TransparentIndex: 255,
			UseAlpha:         false,
			Workers:          0,
		},
		Cache: CacheConfig{
			Enabled: true,
			AppName: "pk2_tiles",
		},
		Logging: LoggingConfig{
			Level:   "warn",
			LogFile: "",
		},
	}
}
