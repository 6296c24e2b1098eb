package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *stdlog.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
	minLevel   = LevelInfo
)

var rank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// initLogger initializes the global logger to write to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", 0)
	})
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rank[l]; !ok {
		return LevelInfo, fmt.Errorf("log: unknown level %q", s)
	}
	return l, nil
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}

	ts := time.Now().Format(time.RFC3339Nano)

	// 2025-01-01T00:00:00Z [LEVEL] msg key=value ...
	line := ts + " [" + string(level) + "] " + msg
	if len(kv) > 0 {
		line += formatKVs(kv...)
	}

	logger.Println(line)
}

func enabled(level Level) bool {
	mu.RLock()
	threshold := minLevel
	mu.RUnlock()

	want, ok := rank[threshold]
	if !ok {
		return true
	}
	return rank[level] >= want
}

func formatKVs(kv ...any) string {
	var b strings.Builder
	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(kv[i+1]))
	}
	// If odd number of args, last one is ignored.
	return b.String()
}

// cronLogger adapts this package to cron.Logger.
type cronLogger struct{}

// CronLogger returns a logger suitable for cron.WithLogger. Cron's info
// messages are chatty and go to debug.
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	Error("cron: "+msg, err, keysAndValues...)
}
