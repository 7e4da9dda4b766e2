package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/diskctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultTimeout  = 1800
	DefaultInterval = 1

	configName = "diskctl"
	configType = "toml"
	configDir  = "/etc"
	configEnv  = "DISKCTL_CONFIG"
)

type Config struct {
	// Timeout is the seconds of inactivity before spinning down
	Timeout int `mapstructure:"timeout"`
	// Interval is the seconds between device polls
	Interval int `mapstructure:"interval"`
	// Quiet suppresses per-tick status logging; transitions are always logged
	Quiet bool `mapstructure:"quiet"`
	Debug bool `mapstructure:"debug"`
	// Metrics enables recording power state history to a SQLite database
	Metrics  bool   `mapstructure:"metrics"`
	Database string `mapstructure:"database"`
	// Devices are the block device paths to monitor, as given (unresolved)
	Devices []string `mapstructure:"devices"`
	// Version requests printing the build version and exiting
	Version bool `mapstructure:"-"`
}

// Verbose reports whether per-tick status logging is enabled
func (c *Config) Verbose() bool {
	return !c.Quiet
}

func Load() (*Config, error) {
	errFactory := errors.New()
	config := &Config{}

	// Define flags
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.BoolP("quiet", "q", false, "Only log state transitions")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.IntP("timeout", "t", DefaultTimeout, "Seconds of inactivity before spinning down")
	fs.Int("interval", DefaultInterval, "Seconds between device polls")
	fs.Bool("metrics", false, "Record power state history")
	fs.String("database", "", "Path to the metrics database")
	configFile := fs.String("config", "", "Path to the config file")
	version := fs.BoolP("version", "V", false, "Print version and exit")

	// Parse flags
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Load configuration from file, with flags taking precedence
	v := viper.New()
	v.SetConfigType(configType)
	if path := configFilePath(*configFile); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Unmarshal the configuration
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	// Positional arguments override a device list from the config file
	if args := fs.Args(); len(args) > 0 {
		config.Devices = args
	}
	config.Version = *version

	if config.Version {
		return config, nil
	}

	return config, config.validate()
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if c.Timeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidTimeout, c.Timeout)
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if len(c.Devices) == 0 {
		return errFactory.New(errors.ErrNoDevices)
	}
	for _, device := range c.Devices {
		if strings.TrimSpace(device) == "" {
			return errFactory.WithData(errors.ErrInvalidArgument, "empty device path")
		}
	}

	return nil
}

// configFilePath picks the explicit config file: the --config flag wins,
// then the DISKCTL_CONFIG environment variable. Empty means search the
// default location.
func configFilePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return os.Getenv(configEnv)
}
