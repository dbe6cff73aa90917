package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers     = flag.Int("workers", 0, "Goroutines used to compute tile rays")
	flagNoCache     = flag.Bool("no-cache", false, "Do not read or write the collision cache")
	flagTransparent = flag.Int("transparent", -1, "Palette index treated as empty (-1 = from config)")
	flagAlpha       = flag.Bool("alpha", false, "Sample pixel alpha instead of the palette key")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Tiles.Workers = *flagWorkers
	}
	if *flagNoCache {
		cfg.Cache.Enabled = false
	}
	if *flagTransparent != -1 {
		cfg.Tiles.TransparentIndex = *flagTransparent
	}
	if *flagAlpha {
		cfg.Tiles.UseAlpha = true
	}
}
