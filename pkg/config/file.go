package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/kbconsole/pkg/dotdir"
)

// FileName is the config file inside the .kbconsole/ directory.
const FileName = "config.toml"

// CurrentVersion is the config.toml layout this build reads and writes.
const CurrentVersion = 0

// File is config.toml in a resolved .kbconsole/ directory. The file itself
// may not exist yet.
type File struct {
	path string
}

// Open resolves the console directory (see dotdir.Resolve) and returns its
// config file.
func Open(dir string) (*File, error) {
	d, err := dotdir.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return &File{path: d.Join(FileName)}, nil
}

// Path returns the absolute path of config.toml.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether config.toml has been written.
func (f *File) Exists() bool {
	info, err := os.Stat(f.path)
	return err == nil && info.Mode().IsRegular()
}

// Load returns the defaults overlaid with the values in config.toml. A
// missing file yields the defaults.
func (f *File) Load() (*Config, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return cfg, nil
}

// Save writes cfg to config.toml, replacing it atomically.
func (f *File) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the value of key, falling back to its default.
func (f *File) Get(key string) (string, error) {
	k, err := mustKey(key)
	if err != nil {
		return "", err
	}
	cfg, err := f.Load()
	if err != nil {
		return "", err
	}
	return k.Get(cfg), nil
}

// Set validates value and persists it under key.
func (f *File) Set(key, value string) error {
	return f.update(key, func(k Key, cfg *Config) error {
		return k.Set(cfg, value)
	})
}

// Unset restores key to its default.
func (f *File) Unset(key string) error {
	return f.update(key, func(k Key, cfg *Config) error {
		k.reset(cfg, NewDefaultConfig())
		return nil
	})
}

func (f *File) update(key string, fn func(Key, *Config) error) error {
	k, err := mustKey(key)
	if err != nil {
		return err
	}
	cfg, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(k, cfg); err != nil {
		return err
	}
	return f.Save(cfg)
}

// Parse decodes config.toml contents over the defaults. Keys the console
// does not know and versions newer than CurrentVersion are errors.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		names := make([]string, len(undecoded))
		for i, k := range undecoded {
			names[i] = k.String()
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown keys in config: %s", strings.Join(names, ", "))
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}
	return cfg, nil
}
