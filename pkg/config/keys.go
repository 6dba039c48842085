package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Key is one dotted configuration key, e.g. "upload.workers".
type Key struct {
	Name  string
	Usage string

	get   func(*Config) string
	set   func(*Config, string) error
	reset func(dst, defaults *Config)
}

// Get formats the key's value in c.
func (k Key) Get(c *Config) string { return k.get(c) }

// Set parses value and stores it in c.
func (k Key) Set(c *Config, value string) error { return k.set(c, value) }

// bind builds a Key over one field of Config.
func bind[T any](name, usage string, field func(*Config) *T, parse func(string) (T, error), format func(T) string) Key {
	return Key{
		Name:  name,
		Usage: usage,
		get:   func(c *Config) string { return format(*field(c)) },
		set: func(c *Config, s string) error {
			v, err := parse(s)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
		reset: func(dst, defaults *Config) { *field(dst) = *field(defaults) },
	}
}

// keys lists every supported key in config.toml section order.
var keys = []Key{
	bind("client.api_target", "Knowledge-base API URL",
		func(c *Config) *string { return &c.Client.APITarget }, parseTarget, same),
	bind("client.timeout", "Overall HTTP timeout per request (e.g. 30s, 10m)",
		func(c *Config) *string { return &c.Client.Timeout }, parseDuration, same),
	bind("chat.plain", "Print answers as raw text instead of rendered markdown",
		func(c *Config) *bool { return &c.Chat.Plain }, strconv.ParseBool, strconv.FormatBool),
	bind("chat.history_turns", "Number of prior turns sent with each query",
		func(c *Config) *uint { return &c.Chat.HistoryTurns }, parseUint, formatUint),
	bind("history.disabled", "Do not record sessions in the local history database",
		func(c *Config) *bool { return &c.History.Disabled }, strconv.ParseBool, strconv.FormatBool),
	bind("history.sqlite_path", "Path to the local chat history database",
		func(c *Config) *string { return &c.History.SQLitePath }, parseAny, same),
	bind("upload.workers", "Number of concurrent upload workers",
		func(c *Config) *uint { return &c.Upload.Workers }, parseUint, formatUint),
	bind("upload.queue_size", "Capacity of the pending upload queue",
		func(c *Config) *uint { return &c.Upload.QueueSize }, parseUint, formatUint),
	bind("upload.default_type", "Content type of uploaded files (document or video)",
		func(c *Config) *string { return &c.Upload.DefaultType }, parseContentType, same),
}

// Keys returns every key name in config.toml section order.
func Keys() []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return names
}

// LookupKey returns the key called name.
func LookupKey(name string) (Key, bool) {
	for _, k := range keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// UnknownKeyError is returned for a key that is not in Keys.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key: %q", e.Key)
}

func mustKey(name string) (Key, error) {
	k, ok := LookupKey(name)
	if !ok {
		return Key{}, &UnknownKeyError{Key: name}
	}
	return k, nil
}

func same(s string) string { return s }

func parseAny(s string) (string, error) { return s, nil }

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 0)
	return uint(n), err
}

func formatUint(n uint) string { return strconv.FormatUint(uint64(n), 10) }

func parseDuration(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return "", err
	}
	if d < 0 {
		return "", errors.New("must not be negative")
	}
	return s, nil
}

func parseTarget(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%q is not an http or https URL", s)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%q has no host", s)
	}
	return s, nil
}

func parseContentType(s string) (string, error) {
	switch s {
	case "document", "video":
		return s, nil
	}
	return "", fmt.Errorf("%q (expected document or video)", s)
}
