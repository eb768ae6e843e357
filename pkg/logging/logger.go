package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Global logger instance and synchronization
var (
	logger   zerolog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File // Track file handle for cleanup
	isInited bool
	initOnce sync.Once // For lazy initialization in GetLogger
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel `mapstructure:"level"`
	OutputPath string   `mapstructure:"output"` // Empty for stdout, or file path
	Format     string   `mapstructure:"format"` // "json" or "console"
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		function := ""
		fun := runtime.FuncForPC(pc)
		if fun != nil {
			funName := fun.Name()
			slash := strings.LastIndex(funName, "/")
			if slash > 0 {
				funName = funName[slash+1:]
			}
			function = " " + funName + "()"
		}
		return file + ":" + strconv.Itoa(line) + function
	}
}

// Init initializes the global logger with the given configuration.
// Subsequent calls to Init return an error until Close is called.
//
// Example:
//
//	logging.Init(logging.Config{
//	    Level: logging.LevelInfo,
//	    OutputPath: "logs/coldstore.log",
//	    Format: "json",
//	})
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	var writer io.Writer

	if config.OutputPath == "" {
		writer = os.Stdout
	} else {
		logDir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return err
		}

		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer = file
		logFile = file
	}

	if config.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	logger = newLogger(writer, parseLevel(config.Level))
	isInited = true
	return nil
}

// InitDefault initializes the logger with defaults: INFO, stdout, JSON.
// PRETTY=1 and DEBUG=1 override format and level.
// This is safe to call multiple times and will only initialize once.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return
	}

	var writer io.Writer = os.Stdout
	if os.Getenv("PRETTY") == "1" {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	level := zerolog.InfoLevel
	if os.Getenv("DEBUG") == "1" {
		level = zerolog.DebugLevel
	}

	logger = newLogger(writer, level)
	isInited = true
}

// SetOutput replaces the global logger with one writing JSON to w.
// Tests use it to capture diagnostics.
func SetOutput(w io.Writer, level LogLevel) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	logger = newLogger(w, parseLevel(level))
	isInited = true
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger().Hook(CallerHook{})
}

func parseLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Close closes the logger and any open file handles.
// It's safe to call Close multiple times.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}

	logger = zerolog.Nop()
	isInited = false

	initOnce = sync.Once{}
	return err
}

// GetLogger returns the current logger instance in a thread-safe manner.
// If the logger is not initialized, it initializes with defaults.
func GetLogger() *zerolog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return &l
	}
	loggerMu.RUnlock()

	initOnce.Do(func() {
		InitDefault()
	})

	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return &l
}

// CallerHook stamps every event with the caller of the logging helper.
type CallerHook struct{}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Caller(4)
}

// Debug logs a debug message with key/value pairs
func Debug(msg string, args ...any) {
	GetLogger().Debug().Fields(args).Msg(msg)
}

// Info logs an info message with key/value pairs
func Info(msg string, args ...any) {
	GetLogger().Info().Fields(args).Msg(msg)
}

// Warn logs a warning message with key/value pairs
func Warn(msg string, args ...any) {
	GetLogger().Warn().Fields(args).Msg(msg)
}

// Error logs an error message with key/value pairs
func Error(msg string, args ...any) {
	GetLogger().Error().Fields(args).Msg(msg)
}

// WithTable creates a logger with table context.
// Use this for catalog and table operations.
func WithTable(tableName string) *zerolog.Logger {
	l := GetLogger().With().Str("table", tableName).Logger()
	return &l
}

// WithIndex creates a logger with index context.
func WithIndex(indexName string) *zerolog.Logger {
	l := GetLogger().With().Str("index", indexName).Logger()
	return &l
}

// WithPartition creates a logger with partition context.
func WithPartition(partition int32) *zerolog.Logger {
	l := GetLogger().With().Int32("partition", partition).Logger()
	return &l
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("delegate")
//	log.Info().Msg("component initialized")
func WithComponent(component string) *zerolog.Logger {
	l := GetLogger().With().Str("component", component).Logger()
	return &l
}

// WithError creates a logger with error context.
func WithError(err error) *zerolog.Logger {
	l := GetLogger().With().Err(err).Logger()
	return &l
}
