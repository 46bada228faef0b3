package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/regkit/internal/confirm"
	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/imaging"
	"github.com/danieljhkim/regkit/internal/registrar"
	"github.com/danieljhkim/regkit/internal/tracing"
)

// EnvPrefix is the prefix of environment overrides, e.g. REGKIT_ELASTIX_BINARY.
const EnvPrefix = "REGKIT"

// Config holds all regkit settings.
type Config struct {
	Elastix  ElastixConfig  `mapstructure:"elastix" yaml:"elastix" json:"elastix"`
	Register RegisterConfig `mapstructure:"register" yaml:"register" json:"register"`
	Confirm  ConfirmConfig  `mapstructure:"confirm" yaml:"confirm" json:"confirm"`
	Imaging  ImagingConfig  `mapstructure:"imaging" yaml:"imaging" json:"imaging"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
	Tracing  tracing.Config `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
}

// ElastixConfig configures the registration tool.
type ElastixConfig struct {
	// Binary is the elastix executable, looked up in PATH unless absolute
	Binary string `mapstructure:"binary" yaml:"binary" json:"binary"`
}

// RegisterConfig configures batch registration runs.
type RegisterConfig struct {
	// Parallel runs the left and right chains concurrently
	Parallel bool `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
}

// ConfirmConfig configures interactive prompts.
type ConfirmConfig struct {
	// Retries is the number of unrecognized answers tolerated
	Retries int `mapstructure:"retries" yaml:"retries" json:"retries"`
}

// ImagingConfig configures the diff and gray utilities.
type ImagingConfig struct {
	// Extension selects the output format of written images
	Extension string `mapstructure:"extension" yaml:"extension" json:"extension"`
}

// LogConfig configures diagnostic logging on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Elastix:  ElastixConfig{Binary: registrar.DefaultElastixBinary},
		Register: RegisterConfig{Parallel: false},
		Confirm:  ConfirmConfig{Retries: confirm.DefaultRetries},
		Imaging:  ImagingConfig{Extension: ".TIF"},
		Log:      LogConfig{Level: "info", Format: ctxlog.FormatText},
		Tracing:  tracing.DefaultConfig(),
	}
}

// SetDefaults registers every key with its default so that environment
// overrides apply to keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("elastix.binary", d.Elastix.Binary)
	v.SetDefault("register.parallel", d.Register.Parallel)
	v.SetDefault("confirm.retries", d.Confirm.Retries)
	v.SetDefault("imaging.extension", d.Imaging.Extension)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads configuration into v and decodes it.
//
// Config lookup order:
//  1. cfgFile, when given (it must exist)
//  2. ./.regkit.yaml
//  3. <config dir>/config.yaml
//
// A missing optional file is not an error. The returned path is the file
// that was read, or "" when only defaults and environment were used.
func Load(v *viper.Viper, cfgFile string, paths *Paths) (Config, string, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := ""
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, "", fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		used = cfgFile
	default:
		for _, candidate := range candidates(paths) {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			v.SetConfigFile(candidate)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, "", fmt.Errorf("failed to read config %s: %w", candidate, err)
			}
			used = candidate
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Tracing.FilePath == "" && paths != nil {
		cfg.Tracing.FilePath = paths.Traces
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, used, err
	}
	return cfg, used, nil
}

func candidates(paths *Paths) []string {
	out := []string{LocalConfigFile}
	if paths != nil {
		out = append(out, paths.Config)
	}
	return out
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Elastix.Binary) == "" {
		errs = append(errs, errors.New("elastix.binary must not be empty"))
	}
	if c.Confirm.Retries < 0 {
		errs = append(errs, fmt.Errorf("confirm.retries must not be negative, got %d", c.Confirm.Retries))
	}
	if _, err := imaging.FormatFromPath("x" + c.Imaging.Extension); err != nil {
		errs = append(errs, fmt.Errorf("imaging.extension: %w", err))
	}
	if _, err := ctxlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case ctxlog.FormatText, ctxlog.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", ctxlog.FormatText, ctxlog.FormatJSON, c.Log.Format))
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

const defaultHeader = `# regkit configuration
#
# Every key can be overridden with an environment variable, e.g.
#   REGKIT_ELASTIX_BINARY=/opt/elastix/bin/elastix
#   REGKIT_REGISTER_PARALLEL=true
#
`

// WriteDefault writes the default configuration to path. An existing file
// is left alone and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	data, err := Marshal(Defaults())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
