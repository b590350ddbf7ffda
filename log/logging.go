// Package log provides configurable logging. It will detect if the process is
// running under a CI server by searching for the "TEAMCITY_VERSION" or "CI"
// environment variables. If it is running under CI it will output logs to
// stdout using json. If it is not it will output logs in a standard single
// line readable format.
//
// Additionally, you can set a LOG_LEVEL environment value to any of the
// following values, to retrieve only log levels from that level and above. The
// default log level is INFO for running under CI and DEBUG when not.
//
// FATAL
// ERROR
// WARN
// INFO
// DEBUG
package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
)

func init() {
	var config zap.Config

	if inCI() {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		switch strings.ToLower(logLevel) {
		case "debug":
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		case "info":
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		case "warn":
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		case "error":
			config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		case "fatal":
			config.Level = zap.NewAtomicLevelAt(zapcore.FatalLevel)
		}
	}

	l, _ := config.Build()
	logger = l.Sugar()
}

func inCI() bool {
	if _, ok := os.LookupEnv("TEAMCITY_VERSION"); ok {
		return true
	}
	_, ok := os.LookupEnv("CI")
	return ok
}

// Debug logs a message with some additional context.
func Debug(msg string, keysAndValues ...interface{}) {
	logger.Debugw(msg, keysAndValues...)
}

// Info logs a message with some additional context.
func Info(msg string, keysAndValues ...interface{}) {
	logger.Infow(msg, keysAndValues...)
}

// Warn logs a message with some additional context.
func Warn(msg string, keysAndValues ...interface{}) {
	logger.Warnw(msg, keysAndValues...)
}

// Error logs a message with some additional context.
func Error(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
}

// Fatal logs a message with some additional context, then calls os.Exit.
func Fatal(msg string, keysAndValues ...interface{}) {
	logger.Fatalw(msg, keysAndValues...)
}
