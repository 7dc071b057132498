package config

const (
	defaultLogDir           = "~/.local/share/exifpipe/logs"
	defaultExifToolBinary   = "exiftool"
	defaultRoundTripTimeout = 30
	defaultOneShotTimeout   = 600
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		ExifTool: ExifTool{
			Binary:           defaultExifToolBinary,
			RoundTripTimeout: defaultRoundTripTimeout,
			OneShotTimeout:   defaultOneShotTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
