package logger

// Console configures logging to stdout and stderr.
type Console struct {
	Enabled bool
	// UseConsoleWriter prints human readable lines instead of JSON.
	UseConsoleWriter bool
}

// Rotation configures lumberjack file rotation. Sizes are in megabytes, ages in days.
type Rotation struct {
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

// LogFile configures file logging, one file per level group.
type LogFile struct {
	Enabled  bool
	Path     string
	Rotation Rotation

	Access string
	Error  string
	Info   string
	Trace  string
	Warn   string
}

// Log implements the logger config.
type Log struct {
	Level string // trace, debug, info, warn, error

	AppName     string
	ServiceName string

	// EnableAccessLogToConsole prints the fiber access log to stdout. Console.Enabled must be set too.
	EnableAccessLogToConsole bool
	ReportCaller             bool

	Console Console
	File    LogFile
}
