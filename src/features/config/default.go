package config

import "time"

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		LibraryPath: "./music",
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Server: Server{
			Enabled:     true,
			PrintRoutes: false,
			Port:        3636,
		},
		Database: Database{
			Path: "./library.db",
		},
		Naming: Naming{
			DirectoryFormat: "artist_album",
			RenameFormat:    "tracknum_title",
			Asciify:         false,
		},
		Writeback: Writeback{
			RetryDelay:    30 * time.Second,
			Throttle:      10 * time.Millisecond,
			PromptTimeout: 10 * time.Minute,
			StopTimeout:   15 * time.Second,
			Suspended:     false,
		},
		Recycle: Recycle{
			TrashPath:   "",
			FinalPasses: 5,
			FinalPause:  200 * time.Millisecond,
			Schedule:    "@every 5m",
		},
		Watcher: Watcher{
			Enabled:  true,
			Debounce: 5 * time.Second,
		},
		Artwork: Artwork{
			Size:    1000,
			Quality: 85,
		},
		Jobs: Jobs{
			Log:     true,
			LogPath: "./logs/jobs",
		},
	}
}
