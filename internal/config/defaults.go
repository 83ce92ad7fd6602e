package config

// Default returns the baseline configuration applied before any file values.
func Default() Config {
	return Config{
		Paths: Paths{
			PresetsDir: "~/.config/photojobs/presets",
			LogDir:     "~/.local/share/photojobs/logs",
			HistoryDB:  "~/.local/share/photojobs/history.db",
		},
		ExifTool: ExifTool{
			Binary:         "exiftool",
			TimeoutSeconds: 60,
		},
		Workflow: Workflow{
			Workers: 0,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Scale: Scale{
			JPEGQuality: 95,
		},
	}
}
