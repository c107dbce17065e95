// Package config loads the preview CLI configuration.
//
// Values are layered with viper: built-in defaults, an optional config file,
// PREVIEW_* environment variables, then command-line flags. The merged result
// is validated before use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/neon-files/preview-sdk/application/validation"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "PREVIEW"

// Config is the preview CLI configuration.
type Config struct {
	Plugin           string        `mapstructure:"plugin" validate:"required"`
	Export           string        `mapstructure:"export" validate:"required,printascii"`
	Hint             string        `mapstructure:"hint"`
	Output           string        `mapstructure:"output"`
	LogLevel         string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxFileSize      int64         `mapstructure:"max_file_size" validate:"gt=0"`
	MemoryLimitPages uint32        `mapstructure:"memory_limit_pages" validate:"lte=65536"`
}

// binding ties a config key to its flag.
type binding struct {
	key   string
	flag  string
	usage string
}

var bindings = []binding{
	{key: "plugin", flag: "plugin", usage: "path to the plugin .wasm file"},
	{key: "export", flag: "export", usage: "plugin export to call"},
	{key: "hint", flag: "hint", usage: "auxiliary hint passed to the plugin (defaults to the file extension)"},
	{key: "output", flag: "output", usage: "write the result to this path instead of stdout"},
	{key: "log_level", flag: "log-level", usage: "log level (debug, info, warn, error)"},
	{key: "timeout", flag: "timeout", usage: "per-call timeout"},
	{key: "max_file_size", flag: "max-file-size", usage: "largest input file accepted, in bytes"},
	{key: "memory_limit_pages", flag: "memory-limit-pages", usage: "plugin memory limit in 64 KiB pages (0 for no limit)"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plugin", "")
	v.SetDefault("export", "preview_file")
	v.SetDefault("hint", "")
	v.SetDefault("output", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max_file_size", int64(32*1024*1024))
	v.SetDefault("memory_limit_pages", uint32(4096)) // 256 MiB
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	defaults := viper.New()
	setDefaults(defaults)

	for _, b := range bindings {
		switch b.key {
		case "timeout":
			fs.Duration(b.flag, defaults.GetDuration(b.key), b.usage)
		case "max_file_size":
			fs.Int64(b.flag, defaults.GetInt64(b.key), b.usage)
		case "memory_limit_pages":
			fs.Uint32(b.flag, defaults.GetUint32(b.key), b.usage)
		default:
			fs.String(b.flag, defaults.GetString(b.key), b.usage)
		}
	}
}

// Load merges defaults, the config file at path (if any), the environment and
// the flags in fs (if any), and validates the result.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if fs != nil {
		for _, b := range bindings {
			if f := fs.Lookup(b.flag); f != nil {
				if err := v.BindPFlag(b.key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", b.flag, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
