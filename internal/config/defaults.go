package config

const (
	defaultDownloadDir = "~/Downloads/galleries"
	defaultLogDir      = "~/.local/share/gallerydl/logs"
	defaultExportDir   = "~/.local/share/gallerydl/exports"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	defaultSleepMsBetweenStarts   = 800
	defaultConcurrentImages       = 2
	defaultRetryCount             = 5
	defaultRetryDelayMs           = 1500
	defaultFilenameTemplate       = "{gallery_title}/{index}_{orig_name}"
	defaultCompletionWaitMinutes  = 10
	defaultNotifyRequestTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			ExportDir:   defaultExportDir,
		},
		Queue: Queue{
			SleepMsBetweenStarts:         defaultSleepMsBetweenStarts,
			ConcurrentImages:             defaultConcurrentImages,
			RetryCount:                   defaultRetryCount,
			RetryDelayMs:                 defaultRetryDelayMs,
			FilenameTemplate:             defaultFilenameTemplate,
			CreatePerGalleryFolder:       true,
			CompletionWaitTimeoutMinutes: defaultCompletionWaitMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Finished:       true,
			Errors:         true,
		},
	}
}
