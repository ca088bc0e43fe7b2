package config

import (
	"strings"
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/logs"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Backend     string
	WaitSlice   time.Duration
	MaxPollSets int
	LogLevel    string

	Server  ServerConfig
	Metrics MetricsConfig

	v *viper.Viper
}

type ServerConfig struct {
	Host     string
	Port     int
	Reactors int
	Workers  int
}

type MetricsConfig struct {
	PushGateway  string
	PushInterval time.Duration
}

// Load reads config.yaml from dir, or consts.DefaultConfigPath when dir is
// empty. A missing file is not an error; defaults and EGGIE_POLL_* env
// variables still apply.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = consts.DefaultConfigPath
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(consts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			e := errs.NewConfigLoadErr().WithErr(err)
			logs.Error(e.Error(), zap.String(consts.LogFieldParams, dir))
			return nil, e
		}
	}

	cfg := &Config{v: v}
	if err := cfg.fill(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(consts.KeyBackend, consts.BackendNative)
	v.SetDefault(consts.KeyWaitSlice, consts.DefaultWaitSlice)
	v.SetDefault(consts.KeyMaxPollSets, consts.DefaultMaxPollSets)
	v.SetDefault(consts.KeyLogLevel, consts.DefaultLogLevel)
	v.SetDefault(consts.KeyServerHost, consts.DefaultServerHost)
	v.SetDefault(consts.KeyServerPort, consts.DefaultServerPort)
	v.SetDefault(consts.KeyServerReactors, consts.DefaultServerReactors)
	v.SetDefault(consts.KeyServerWorkers, consts.DefaultServerWorkers)
	v.SetDefault(consts.KeyMetricsGateway, "")
	v.SetDefault(consts.KeyMetricsPushPeriod, consts.DefaultPushInterval)
}

func (cfg *Config) fill() error {
	v := cfg.v
	cfg.Backend = v.GetString(consts.KeyBackend)
	cfg.WaitSlice = v.GetDuration(consts.KeyWaitSlice)
	cfg.MaxPollSets = v.GetInt(consts.KeyMaxPollSets)
	cfg.LogLevel = v.GetString(consts.KeyLogLevel)
	cfg.Server = ServerConfig{
		Host:     v.GetString(consts.KeyServerHost),
		Port:     v.GetInt(consts.KeyServerPort),
		Reactors: v.GetInt(consts.KeyServerReactors),
		Workers:  v.GetInt(consts.KeyServerWorkers),
	}
	cfg.Metrics = MetricsConfig{
		PushGateway:  v.GetString(consts.KeyMetricsGateway),
		PushInterval: v.GetDuration(consts.KeyMetricsPushPeriod),
	}
	return cfg.validate()
}

func (cfg *Config) validate() error {
	invalid := func(key string, value interface{}) error {
		e := errs.NewInvalidParamErr().WithErr(errors.Errorf("%s = %v", key, value))
		logs.Error(e.Error(), zap.String(consts.LogFieldParams, key), zap.Any(consts.LogFieldValue, value))
		return e
	}

	switch cfg.Backend {
	case consts.BackendNative, consts.BackendEmulated:
	default:
		return invalid(consts.KeyBackend, cfg.Backend)
	}
	if cfg.WaitSlice <= 0 {
		return invalid(consts.KeyWaitSlice, cfg.WaitSlice)
	}
	if cfg.MaxPollSets <= 0 {
		return invalid(consts.KeyMaxPollSets, cfg.MaxPollSets)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return invalid(consts.KeyServerPort, cfg.Server.Port)
	}
	if cfg.Server.Reactors <= 0 {
		return invalid(consts.KeyServerReactors, cfg.Server.Reactors)
	}
	if cfg.Server.Workers <= 0 {
		return invalid(consts.KeyServerWorkers, cfg.Server.Workers)
	}
	if cfg.Metrics.PushInterval <= 0 {
		return invalid(consts.KeyMetricsPushPeriod, cfg.Metrics.PushInterval)
	}
	return nil
}

// Set overrides a key after loading, e.g. from a command line flag.
func (cfg *Config) Set(key string, value interface{}) error {
	cfg.v.Set(key, value)
	return cfg.fill()
}

// Watch re-reads the file on every change and hands the new values to fn.
// Only the runtime-tunable keys (wait_slice, log_level) are expected to be
// acted upon by fn; an invalid file is logged and ignored.
func (cfg *Config) Watch(fn func(*Config)) {
	cfg.v.OnConfigChange(func(ev fsnotify.Event) {
		next := &Config{v: cfg.v}
		if err := next.fill(); err != nil {
			logs.Warn("ignore invalid config change", zap.String(consts.LogFieldParams, ev.Name), zap.Error(err))
			return
		}
		logs.Info("config changed", zap.String(consts.LogFieldParams, ev.Name), zap.Stringer(consts.LogFieldValue, ev.Op))
		fn(next)
	})
	cfg.v.WatchConfig()
}
