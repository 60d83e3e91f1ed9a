// Package log is a thin process-wide wrapper around a zap sugared logger.
package log

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	base *zap.Logger
	log  *zap.SugaredLogger
	// errorFile receives a copy of every warning and error when set
	errorFile *os.File
	// panicOnInvalidChars is set based on env LOG_PANIC_ON_INVALIDCHARS (parsed as bool)
	panicOnInvalidChars bool
)

func init() {
	// $LOG_LEVEL overrides the default level, also when running tests.
	// The logger is always built so that logging never hits a nil logger.
	level := "error"
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level = s
	}
	Init(level, "stderr")
}

// Logger returns the underlying sugared logger.
func Logger() *zap.SugaredLogger { return log }

// Init initializes the logger. Output can be either "stdout", "stderr", a file path
// or any URL whose scheme has been registered with zap.RegisterSink. A previously
// configured error file keeps receiving the warnings and errors.
func Init(logLevel string, output string) {
	logger, err := newConfig(logLevel, output).Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	mu.Lock()
	base = logger
	build()
	mu.Unlock()
	log.Infof("logger construction succeeded at level %s with output %s", logLevel, output)

	// ParseBool errors leave panicOnInvalidChars false
	b, _ := strconv.ParseBool(os.Getenv("LOG_PANIC_ON_INVALIDCHARS"))
	panicOnInvalidChars = b
}

// SetFileErrorLog mirrors the warning and error messages to the file at path.
func SetFileErrorLog(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open error log file: %w", err)
	}
	mu.Lock()
	if errorFile != nil {
		errorFile.Close()
	}
	errorFile = f
	build()
	mu.Unlock()
	log.Infof("using file %s for logging warning and errors", path)
	return nil
}

// build sets the sugared logger from base, teeing to the error file if any.
// Must be called with mu held.
func build() {
	logger := base
	if errorFile != nil {
		fileCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(false)),
			zapcore.Lock(errorFile),
			zap.WarnLevel,
		)
		logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}
	log = logger.Sugar()
}

func levelFromString(logLevel string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		return zap.InfoLevel
	}
	return level
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime: func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
			encoder.AppendString(ts.Local().Format(time.RFC3339))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

func newConfig(logLevel, output string) zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(levelFromString(logLevel)),
		Encoding: "console",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		EncoderConfig:    encoderConfig(true),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}
}

// checkInvalidChars panics if s contains the Unicode replacement char (U+FFFD)
// and LOG_PANIC_ON_INVALIDCHARS is true. Such a char usually means a format
// verb that does not match its argument.
func checkInvalidChars(s func() string) {
	if panicOnInvalidChars && strings.ContainsRune(s(), '\uFFFD') {
		panic(fmt.Sprintf("log line with invalid chars: %s", s()))
	}
}

// Debug sends a debug level log message
func Debug(args ...interface{}) {
	log.Debug(args...)
	checkInvalidChars(func() string { return fmt.Sprint(args...) })
}

// Info sends an info level log message
func Info(args ...interface{}) {
	log.Info(args...)
	checkInvalidChars(func() string { return fmt.Sprint(args...) })
}

// Warn sends a warn level log message
func Warn(args ...interface{}) {
	log.Warn(args...)
	checkInvalidChars(func() string { return fmt.Sprint(args...) })
}

// Error sends an error level log message
func Error(args ...interface{}) {
	log.Error(args...)
	checkInvalidChars(func() string { return fmt.Sprint(args...) })
}

// Fatal sends a fatal level log message
func Fatal(args ...interface{}) {
	log.Fatal(args...)
	// Help analyzers like staticcheck see that Fatal always exits.
	panic("unreachable")
}

// Debugf sends a formatted debug level log message
func Debugf(template string, args ...interface{}) {
	log.Debugf(template, args...)
	checkInvalidChars(func() string { return fmt.Sprintf(template, args...) })
}

// Infof sends a formatted info level log message
func Infof(template string, args ...interface{}) {
	log.Infof(template, args...)
	checkInvalidChars(func() string { return fmt.Sprintf(template, args...) })
}

// Warnf sends a formatted warn level log message
func Warnf(template string, args ...interface{}) {
	log.Warnf(template, args...)
	checkInvalidChars(func() string { return fmt.Sprintf(template, args...) })
}

// Errorf sends a formatted error level log message
func Errorf(template string, args ...interface{}) {
	log.Errorf(template, args...)
	checkInvalidChars(func() string { return fmt.Sprintf(template, args...) })
}

// Fatalf sends a formatted fatal level log message
func Fatalf(template string, args ...interface{}) {
	log.Fatalf(template, args...)
	panic("unreachable")
}

// Debugw sends a key-value formatted debug level log message
func Debugw(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

// Infow sends a key-value formatted info level log message
func Infow(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

// Warnw sends a key-value formatted warn level log message
func Warnw(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

// Errorw sends a key-value formatted error level log message with err as "error"
func Errorw(err error, msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// Fatalw sends a key-value formatted fatal level log message
func Fatalw(msg string, keysAndValues ...interface{}) {
	log.Fatalw(msg, keysAndValues...)
	panic("unreachable")
}
