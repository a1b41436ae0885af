package config

import "time"

// Config holds the application configuration.
type Config struct {
	LibraryPath string    `yaml:"libraryPath" validate:"required"`
	Logger      Logger    `yaml:"logger"`
	Server      Server    `yaml:"server"`
	Database    Database  `yaml:"database"`
	Naming      Naming    `yaml:"naming"`
	Writeback   Writeback `yaml:"writeback"`
	Recycle     Recycle   `yaml:"recycle"`
	Watcher     Watcher   `yaml:"watcher"`
	Artwork     Artwork   `yaml:"artwork"`
	Jobs        Jobs      `yaml:"jobs"`
}

type Jobs struct {
	Log     bool   `yaml:"log"`
	LogPath string `yaml:"log_path"`
}

// Naming holds the templates used to rename and move tracks.
type Naming struct {
	DirectoryFormat string `yaml:"directory_format" validate:"required"`
	RenameFormat    string `yaml:"rename_format" validate:"required"`
	Asciify         bool   `yaml:"asciify"`
}

// Writeback holds the tuning of the background writer.
type Writeback struct {
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`
	Throttle      time.Duration `yaml:"throttle" validate:"gte=0"`
	PromptTimeout time.Duration `yaml:"prompt_timeout" validate:"gte=0"`
	StopTimeout   time.Duration `yaml:"stop_timeout" validate:"gte=0"`
	Suspended     bool          `yaml:"suspended"`
}

// Recycle holds the configuration of the deferred deletion queue.
type Recycle struct {
	TrashPath   string        `yaml:"trash_path"`
	FinalPasses int           `yaml:"final_passes" validate:"gte=1,lte=20"`
	FinalPause  time.Duration `yaml:"final_pause" validate:"gte=0"`
	Schedule    string        `yaml:"schedule"`
}

// Watcher holds the configuration of the library file watcher.
type Watcher struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// Artwork holds configuration for embedded artwork
type Artwork struct {
	Size    int `yaml:"size" validate:"gte=0"`
	Quality int `yaml:"quality" validate:"gte=0,lte=100"`
}

// Database holds the configuration for the database
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	Enabled     bool   `yaml:"enabled"`
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=text json logfmt"`
}
