package config

const (
	defaultDownloadDir        = "~/.local/share/packmule/downloads"
	defaultLogDir             = "~/.local/share/packmule/logs"
	defaultLinkCachePath      = "~/.cache/packmule/links.json"
	defaultMinFreeMiB         = 256
	defaultPollTimeout        = 30
	defaultDestinationTimeout = 60
	defaultNtfyTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			MinFreeMiB:  defaultMinFreeMiB,
		},
		Telegram: Telegram{
			PollTimeout: defaultPollTimeout,
		},
		Destination: Destination{
			RequestTimeout: defaultDestinationTimeout,
		},
		LinkCache: LinkCache{
			Path: defaultLinkCachePath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Errors:         true,
			Packs:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
