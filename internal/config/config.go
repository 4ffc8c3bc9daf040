package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"imgswap/internal/convert"
)

// EnvPrefix namespaces environment overrides, e.g. IMGSWAP_QUALITY.
const EnvPrefix = "IMGSWAP"

// Flag names shared by the conversion commands.
const (
	FlagQuality         = "quality"
	FlagDeleteOriginals = "delete-originals"
	FlagRecursive       = "recursive"
	FlagPlain           = "plain"
	FlagLogFile         = "log-file"
)

type Config struct {
	Root            string
	Target          convert.Format
	Quality         int
	DeleteOriginals bool
	Recursive       bool
	Plain           bool
	LogFile         string
}

// Load resolves a Config from command flags, with IMGSWAP_* environment
// variables taking precedence over flag defaults but not over flags that
// were set explicitly.
func Load(flags *pflag.FlagSet, target convert.Format, args []string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := Config{
		Root:            ".",
		Target:          target,
		Quality:         v.GetInt(FlagQuality),
		DeleteOriginals: v.GetBool(FlagDeleteOriginals),
		Recursive:       v.GetBool(FlagRecursive),
		Plain:           v.GetBool(FlagPlain),
		LogFile:         v.GetString(FlagLogFile),
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		cfg.Root = strings.Trim(args[0], "\" ")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return fmt.Errorf("quality must be in range 1-100, got %d", cfg.Quality)
	}
	return nil
}
