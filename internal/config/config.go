package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"   validate:"required"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// ScheduleConfig contains the scheduling engine settings.
type ScheduleConfig struct {
	// DefaultTimezone is the IANA zone substituted for users with a
	// missing or unresolvable timezone name.
	DefaultTimezone string `mapstructure:"default_timezone" validate:"required"`

	// NotificationTime is the local wall time ("HH:MM") of the daily
	// notification cycle.
	NotificationTime string `mapstructure:"notification_time" validate:"required,len=5"`
}

// DispatcherConfig contains the notification dispatcher settings.
type DispatcherConfig struct {
	// OverdueCheckHours is the interval, in hours, between periodic
	// overdue checks in addition to the daily cycle.
	OverdueCheckHours int `mapstructure:"overdue_check_hours" validate:"required,gt=0,lte=24"`
}
