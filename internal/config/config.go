package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode             string        `mapstructure:"mode"`
	Port             int           `mapstructure:"port"`
	StaticPath       string        `mapstructure:"static_path"`
	ReadLimit        int64         `mapstructure:"read_limit"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
	Secret           string        `mapstructure:"secret"`
	LogLevel         string        `mapstructure:"log_level"`
	ICEServers       []string      `mapstructure:"ice_servers"`
	CallRateLimit    int           `mapstructure:"call_rate_limit"`
	CallRateInterval time.Duration `mapstructure:"call_rate_interval"`

	// ElementProperties maps conference factory → element factory →
	// property → value.
	ElementProperties map[string]map[string]map[string]any `mapstructure:"element_properties"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "echocall-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("call_rate_limit", 5)
	v.SetDefault("call_rate_interval", "1m")
}

// Flags declares the command-line overrides.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("echocall", pflag.ContinueOnError)
	fs.String("config", "", "config file (default config/config.<CONFIG_ENV>.yaml)")
	fs.String("mode", "", "gin mode: debug or release")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("static_path", "", "directory served under /static")
	fs.String("log_level", "", "zerolog level")
	return fs
}

// Load reads the config file, ECHOCALL_* environment and flags from args.
// When the file changes later the log level is re-applied.
func Load(args []string) (*Config, error) {
	flags := Flags()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("ECHOCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || !f.Changed {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			log.Warn().Err(err).Str("module", "config").Str("flag", f.Name).Msg("bind flag")
		}
	})

	fileName, _ := flags.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
		v.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			ApplyLogLevel(v.GetString("log_level"))
			log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config")
	return &cfg, nil
}

// ApplyLogLevel sets the global zerolog level; unknown names keep the current one.
func ApplyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("module", "config").Str("level", level).Msg("unknown log level")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}
