package config

const (
	defaultAPITarget = "http://localhost:8000"
	defaultTimeout   = "10m"

	defaultHistoryTurns = 6

	defaultUploadWorkers   = 1
	defaultUploadQueueSize = 64
	defaultUploadType      = "document"
)

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
			Timeout:   defaultTimeout,
		},
		Chat: ChatConfig{
			HistoryTurns: defaultHistoryTurns,
		},
		Upload: UploadConfig{
			Workers:     defaultUploadWorkers,
			QueueSize:   defaultUploadQueueSize,
			DefaultType: defaultUploadType,
		},
	}
}
