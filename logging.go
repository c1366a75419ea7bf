package cbstore

import (
	"fmt"
	"log"
	"os"
)

// LogLevel specifies the severity of a log message.
type LogLevel int

// Various logging levels, ordered from most severe to most verbose.
const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
	LogTrace
)

// Logger defines a logging interface. You can either use one of the default
// loggers (DefaultStdioLogger(), VerboseStdioLogger()) or implement your own.
type Logger interface {
	// Outputs log messages. The offset argument is the frame offset from
	// the log call site, for use by implementations that log source lines.
	Log(level LogLevel, offset int, format string, v ...interface{}) error
}

type defaultLogger struct {
	GoLogger *log.Logger
	Level    LogLevel
}

func (l *defaultLogger) Log(level LogLevel, offset int, format string, v ...interface{}) error {
	if level > l.Level {
		return nil
	}
	s := fmt.Sprintf(format, v...)
	return l.GoLogger.Output(offset+2, s)
}

var (
	globalDefaultLogger = defaultLogger{
		GoLogger: log.New(os.Stderr, "CBSTORE ", log.Lmicroseconds|log.Lshortfile),
		Level:    LogInfo,
	}

	globalVerboseLogger = defaultLogger{
		GoLogger: globalDefaultLogger.GoLogger,
		Level:    LogDebug,
	}

	globalLogger Logger
)

// DefaultStdioLogger gets the default standard I/O logger.
func DefaultStdioLogger() Logger {
	return &globalDefaultLogger
}

// VerboseStdioLogger is a more verbose level of DefaultStdioLogger(). Messages
// pertaining to the scheduling of individual operations will also be emitted.
func VerboseStdioLogger() Logger {
	return &globalVerboseLogger
}

// SetLogger sets a logger to be used by the library. A logger can be obtained
// via the DefaultStdioLogger() or VerboseStdioLogger() functions. You can also
// implement your own logger using the Logger interface.
func SetLogger(logger Logger) {
	globalLogger = logger
}

func logExf(level LogLevel, offset int, format string, v ...interface{}) {
	if globalLogger != nil {
		err := globalLogger.Log(level, offset+1, format, v...)
		if err != nil {
			log.Printf("Logger error occurred (%s)\n", err)
		}
	}
}

func logDebugf(format string, v ...interface{}) {
	logExf(LogDebug, 1, format, v...)
}

func logInfof(format string, v ...interface{}) {
	logExf(LogInfo, 1, format, v...)
}

func logWarnf(format string, v ...interface{}) {
	logExf(LogWarn, 1, format, v...)
}

func logErrorf(format string, v ...interface{}) {
	logExf(LogError, 1, format, v...)
}

type redactableUserData struct {
	data interface{}
}

func (rud redactableUserData) String() string {
	return fmt.Sprintf("<ud>%v</ud>", rud.data)
}

// redactUserData tags user-provided data (document keys, values) so that log
// post-processors can strip it.
func redactUserData(v interface{}) fmt.Stringer {
	return redactableUserData{v}
}

type redactableMetaData struct {
	data interface{}
}

func (rmd redactableMetaData) String() string {
	return fmt.Sprintf("<md>%v</md>", rmd.data)
}

// redactMetaData tags cluster metadata (bucket names, node addresses) so that
// log post-processors can strip it.
func redactMetaData(v interface{}) fmt.Stringer {
	return redactableMetaData{v}
}
