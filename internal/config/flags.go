package config

import "github.com/spf13/pflag"

// Overrides carries command-line values that take priority over the file.
// Zero values leave the loaded setting untouched.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogLevel   string
	LogFile    string
	Workers    int
	BatchSize  int
}

// BindFlags registers the override flags on fs.
func (o *Overrides) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogLevel, "log-level", "", "Logging level (debug|info|warn|error)")
	fs.StringVar(&o.LogFile, "log-file", "", "Write logs to this rotating file")
	fs.IntVar(&o.Workers, "workers", 0, "Parallel solver workers (0 = config/GOMAXPROCS)")
	fs.IntVar(&o.BatchSize, "batch-size", 0, "Vertices per work unit")
}

// apply applies CLI overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Workers > 0 {
		cfg.Reconstruct.Workers = o.Workers
	}
	if o.BatchSize > 0 {
		cfg.Reconstruct.BatchSize = o.BatchSize
	}
}
