// Package config loads wipe settings from defaults, an optional config file,
// WIPE_* environment variables, an optional .env file, and command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the explicit directory and policy state handed to the key store
// and report generator. Nothing below the command layer reads process state.
type Config struct {
	ReportDir          string        `mapstructure:"report_dir" yaml:"report_dir" validate:"required"`
	KeyDir             string        `mapstructure:"key_dir" yaml:"key_dir" validate:"required"`
	Passes             int           `mapstructure:"passes" yaml:"passes" validate:"min=1,max=35"`
	KeyBits            int           `mapstructure:"key_bits" yaml:"key_bits" validate:"oneof=2048 3072 4096"`
	Medium             string        `mapstructure:"medium" yaml:"medium" validate:"oneof=auto hdd ssd unknown"`
	Sign               bool          `mapstructure:"sign" yaml:"sign"`
	PDF                bool          `mapstructure:"pdf" yaml:"pdf"`
	Metrics            bool          `mapstructure:"metrics" yaml:"metrics"`
	SysfsRoot          string        `mapstructure:"sysfs_root" yaml:"sysfs_root" validate:"required"`
	ClassifierCacheTTL time.Duration `mapstructure:"classifier_cache_ttl" yaml:"classifier_cache_ttl" validate:"min=0"`

	// KeyPassphrase is read only from the environment and never serialised.
	KeyPassphrase string `mapstructure:"-" yaml:"-"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-" yaml:"-"`
}

// LoadOptions selects the inputs for Load.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// SetDefaults installs every key with its default so env and flag overrides
// resolve through Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("report_dir", shared.DefaultReportDir)
	v.SetDefault("key_dir", shared.DefaultKeyDir)
	v.SetDefault("passes", shared.DefaultHDDPasses)
	v.SetDefault("key_bits", shared.DefaultKeyBits)
	v.SetDefault("medium", "auto")
	v.SetDefault("sign", true)
	v.SetDefault("pdf", false)
	v.SetDefault("metrics", true)
	v.SetDefault("sysfs_root", "/sys")
	v.SetDefault("classifier_cache_ttl", 5*time.Minute)
}

// Load resolves the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)
	SetViperEnvPrefix(v, shared.EnvPrefix)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(shared.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(xdg.XDGConfigPath(shared.WipeID, shared.DefaultConfigName+".yaml")))
		v.AddConfigPath("/etc/wipe")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, wipe_err.NewValidationError(
				fmt.Sprintf("cannot read config: %v", err),
				"Check the file exists and is valid YAML")
		}
	}

	if opts.Flags != nil {
		if err := BindFlagsToViper(opts.Flags, v); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, wipe_err.NewValidationError(fmt.Sprintf("cannot decode config: %v", err))
	}
	cfg.Medium = strings.ToLower(strings.TrimSpace(cfg.Medium))
	cfg.KeyPassphrase = os.Getenv(shared.KeyPassphraseEnv)
	cfg.Source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with no file, env, or flag input.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return wipe_err.NewValidationError("invalid configuration: "+strings.Join(msgs, "; "),
				"Run 'wipe config show' to inspect effective values")
		}
		return wipe_err.NewValidationError(fmt.Sprintf("invalid configuration: %v", err))
	}
	return nil
}

func (c *Config) PrivateKeyPath() string {
	return filepath.Join(c.KeyDir, shared.PrivateKeyFile)
}

func (c *Config) PublicKeyPath() string {
	return filepath.Join(c.KeyDir, shared.PublicKeyFile)
}

func (c *Config) MetricsPath() string {
	return filepath.Join(c.ReportDir, shared.MetricsFile)
}

// YAML renders the effective configuration. The passphrase is never included.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// BindFlagsToViper binds every flag on fs to v, mapping dashes to underscores.
func BindFlagsToViper(fs *pflag.FlagSet, v *viper.Viper) error {
	var result error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}

// SetViperEnvPrefix lets Viper read env with prefix.
func SetViperEnvPrefix(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return wipe_err.NewValidationError(fmt.Sprintf("cannot load env file %s: %v", path, err))
	}
	return nil
}
