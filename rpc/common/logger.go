package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// output is shared by all loggers. Logs go to stderr so that command output on
// stdout stays machine readable.
var output = log.New(os.Stderr, "", log.Ldate|log.Ltime)

// SetLogOutput redirects all loggers created by CreateLogger
func SetLogOutput(w io.Writer) {
	output.SetOutput(w)
}

// levelLogger implements dragonboat's logger.ILogger with one line per entry:
//
//	2025/01/02 15:04:05 INFO  | transport/rpc   | Connected to ...
type levelLogger struct {
	name  string
	level atomic.Int32
}

func (l *levelLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *levelLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *levelLogger) write(tag string, format string, args []interface{}) {
	output.Printf("%-5s | %-15s | %s", tag, l.name, fmt.Sprintf(format, args...))
}

func (l *levelLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.write("DEBUG", format, args)
	}
}

func (l *levelLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.write("INFO", format, args)
	}
}

func (l *levelLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.write("WARN", format, args)
	}
}

func (l *levelLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.write("ERROR", format, args)
	}
}

// Panicf always panics, dragonboat relies on it for unrecoverable states
func (l *levelLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write("PANIC", "%s", []interface{}{msg})
	panic(msg)
}

// CreateLogger is the logger.Factory for all dragonboat and application loggers
func CreateLogger(pkgName string) logger.ILogger {
	l := &levelLogger{name: pkgName}
	l.SetLevel(logger.INFO)
	return l
}

var logLevels = map[string]logger.LogLevel{
	"debug":   logger.DEBUG,
	"info":    logger.INFO,
	"warn":    logger.WARNING,
	"warning": logger.WARNING,
	"error":   logger.ERROR,
}

// ValidLogLevel reports whether level is accepted by InitLoggers
func ValidLogLevel(level string) bool {
	_, ok := logLevels[strings.ToLower(level)]
	return ok
}

var (
	// raftLoggers are the loggers of dragonboat and its dependencies
	raftLoggers = []string{"raft", "raftdb", "rsm", "transport", "dragonboat", "grpc", "util", "logdb"}

	// appLoggers are the loggers of this module
	appLoggers = []string{"store", "transport/rpc", "rpc", "bayes"}

	factoryOnce sync.Once
)

// InitLoggers installs CreateLogger as the logger factory (once per process) and
// applies level (debug, info, warn, error) to every known logger. It panics on an
// invalid level, use ValidLogLevel to check user input first.
func InitLoggers(level string) {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		panic(fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level))
	}

	factoryOnce.Do(func() { logger.SetLoggerFactory(CreateLogger) })

	for _, names := range [][]string{raftLoggers, appLoggers} {
		for _, name := range names {
			logger.GetLogger(name).SetLevel(lvl)
		}
	}
}
