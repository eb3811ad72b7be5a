package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CURSORCODE_LOG_LEVEL.
const EnvPrefix = "CURSORCODE"

// Load reads settings and freezes them. See LoadSettings for precedence.
func Load(path string) (*Config, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return New(s)
}

// LoadSettings builds Settings with this precedence (highest first):
//  1. Environment variables (CURSORCODE_*, plus XAI_API_KEY and the model ids)
//  2. The YAML file at path, or ./cursorcode.yaml when path is empty
//  3. Built-in defaults
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cursorcode")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by existing deployments.
	_ = v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "XAI_API_KEY")
	_ = v.BindEnv("models.default_reasoning", EnvPrefix+"_MODELS_DEFAULT_REASONING", "DEFAULT_XAI_MODEL")
	_ = v.BindEnv("models.fast_reasoning", EnvPrefix+"_MODELS_FAST_REASONING", "FAST_REASONING_MODEL")
	_ = v.BindEnv("models.fast_non_reasoning", EnvPrefix+"_MODELS_FAST_NON_REASONING", "FAST_NON_REASONING_MODEL")
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("environment", EnvPrefix+"_ENVIRONMENT", "ENVIRONMENT")

	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	s.Provider.APIKey = os.ExpandEnv(s.Provider.APIKey)
	return s, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
// Agent descriptors are not registered; they come from Default and the file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("environment", d.Environment)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.api_key_param", "")
	v.SetDefault("provider.timeout", d.Provider.Timeout)

	for class, id := range d.Models {
		v.SetDefault("models."+class, id)
	}
	v.SetDefault("fallback_model", d.FallbackModel)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("retry.min_wait", d.Retry.MinWait)
	v.SetDefault("retry.max_wait", d.Retry.MaxWait)

	v.SetDefault("audit.driver", d.Audit.Driver)
	v.SetDefault("audit.sqlite_path", d.Audit.SQLitePath)
	v.SetDefault("audit.queue_size", d.Audit.QueueSize)
	v.SetDefault("audit.max_retries", d.Audit.MaxRetries)
	v.SetDefault("audit.retry_delay", d.Audit.RetryDelay)

	v.SetDefault("metering.driver", d.Metering.Driver)
	v.SetDefault("metering.table", d.Metering.Table)
	v.SetDefault("metering.queue_size", d.Metering.QueueSize)
	v.SetDefault("metering.max_retries", d.Metering.MaxRetries)
	v.SetDefault("metering.retry_delay", d.Metering.RetryDelay)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	v.SetDefault("server.audit_all_rate_limits", d.Server.AuditAllRateLimits)

	v.SetDefault("tokens.estimator", d.Tokens.Estimator)
}
