package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/papercomputeco/kbconsole/pkg/dotdir"
)

// EnvPrefix is the prefix for environment overrides (KB_CLIENT_API_TARGET...).
const EnvPrefix = "KB"

// InitViper returns a viper instance resolving each key with precedence
// bound flag > KB_* environment > config.toml > default. Bind flags with
// BindRegisteredFlags, then read the result with FromViper.
func InitViper(configDir string) (*viper.Viper, error) {
	v := newDefaultsViper()

	d, err := dotdir.Resolve(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	path := d.Join(FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// FromViper validates every resolved key and returns the merged Config. A
// bad value from any layer names the key it came from.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	cfg.Version = v.GetInt("version")
	for _, k := range keys {
		if err := k.Set(cfg, v.GetString(k.Name)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newDefaultsViper() *viper.Viper {
	v := viper.New()
	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for _, k := range keys {
		v.SetDefault(k.Name, k.Get(d))
	}
	return v
}

// defaults is shared by flag registration, which only reads from it.
var defaults = sync.OnceValue(newDefaultsViper)
