package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag ties a command-line flag to a config key. Commands register flags by
// registry name so that --api-target reads the same everywhere.
type Flag struct {
	Name      string
	Shorthand string
	ViperKey  string
}

// Usage returns the help text of the flag's config key.
func (f Flag) Usage() string {
	if k, ok := LookupKey(f.ViperKey); ok {
		return k.Usage
	}
	return ""
}

// FlagSet maps registry names to flags.
type FlagSet map[string]Flag

// Registry names accepted by AddStringFlag, AddUintFlag, AddBoolFlag and
// BindRegisteredFlags.
const (
	FlagAPITarget    = "api-target"
	FlagTimeout      = "timeout"
	FlagPlain        = "plain"
	FlagHistoryTurns = "history-turns"
	FlagNoHistory    = "no-history"
	FlagHistoryPath  = "history-path"
	FlagWorkers      = "workers"
	FlagQueueSize    = "queue-size"
	FlagDocType      = "type"
)

// Flags is the registry shared by every kb command.
var Flags = FlagSet{
	FlagAPITarget:    {Name: FlagAPITarget, Shorthand: "a", ViperKey: "client.api_target"},
	FlagTimeout:      {Name: FlagTimeout, ViperKey: "client.timeout"},
	FlagPlain:        {Name: FlagPlain, ViperKey: "chat.plain"},
	FlagHistoryTurns: {Name: FlagHistoryTurns, ViperKey: "chat.history_turns"},
	FlagNoHistory:    {Name: FlagNoHistory, ViperKey: "history.disabled"},
	FlagHistoryPath:  {Name: FlagHistoryPath, ViperKey: "history.sqlite_path"},
	FlagWorkers:      {Name: FlagWorkers, Shorthand: "w", ViperKey: "upload.workers"},
	FlagQueueSize:    {Name: FlagQueueSize, ViperKey: "upload.queue_size"},
	FlagDocType:      {Name: FlagDocType, Shorthand: "t", ViperKey: "upload.default_type"},
}

// AddStringFlag registers the string flag fs[name] on cmd, defaulting to the
// config key's default value.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, name string, target *string) {
	if f, ok := fs[name]; ok {
		cmd.Flags().StringVarP(target, f.Name, f.Shorthand, defaults().GetString(f.ViperKey), f.Usage())
	}
}

// AddUintFlag registers the uint flag fs[name] on cmd.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, name string, target *uint) {
	if f, ok := fs[name]; ok {
		cmd.Flags().UintVarP(target, f.Name, f.Shorthand, defaults().GetUint(f.ViperKey), f.Usage())
	}
}

// AddBoolFlag registers the bool flag fs[name] on cmd.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, name string, target *bool) {
	if f, ok := fs[name]; ok {
		cmd.Flags().BoolVarP(target, f.Name, f.Shorthand, defaults().GetBool(f.ViperKey), f.Usage())
	}
}

// BindRegisteredFlags connects the named flags already registered on cmd to
// their config keys in v. Unchanged flags fall through to the lower layers.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, names []string) {
	for _, name := range names {
		f, ok := fs[name]
		if !ok {
			continue
		}
		if pf := cmd.Flags().Lookup(f.Name); pf != nil {
			_ = v.BindPFlag(f.ViperKey, pf)
		}
	}
}
