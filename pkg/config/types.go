// Package config reads and writes the console's config.toml and layers it
// with KB_* environment variables and command flags.
package config

import "time"

// Config is the persistent console configuration stored as config.toml in
// the .kbconsole/ directory.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Chat    ChatConfig    `toml:"chat"`
	History HistoryConfig `toml:"history"`
	Upload  UploadConfig  `toml:"upload"`
}

// ClientConfig holds settings for reaching the knowledge-base API.
type ClientConfig struct {
	// APITarget is the base URL, scheme and host included.
	APITarget string `toml:"api_target,omitempty"`

	// Timeout is a Go duration string. Empty means no timeout.
	Timeout string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, returning zero when it is unset or invalid.
func (c ClientConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ChatConfig holds settings for kb chat.
type ChatConfig struct {
	// Plain disables markdown rendering of completed answers.
	Plain bool `toml:"plain,omitempty"`

	// HistoryTurns is how many prior turns are sent with each query.
	HistoryTurns uint `toml:"history_turns,omitempty"`
}

// HistoryConfig holds settings for the local chat transcript database.
type HistoryConfig struct {
	Disabled   bool   `toml:"disabled,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// UploadConfig holds settings for kb upload, kb bulk-upload and kb watch.
type UploadConfig struct {
	Workers     uint   `toml:"workers,omitempty"`
	QueueSize   uint   `toml:"queue_size,omitempty"`
	DefaultType string `toml:"default_type,omitempty"`
}
