package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"flask-test-app/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SystemName is reported as the Event Source of every log line.
const SystemName = "flask-test-app"

// Logger is the global logrus instance.
var Logger = logrus.New()
var once sync.Once

// CustomFormatter implements logrus.Formatter with the service's event line format.
type CustomFormatter struct {
	SystemName string
	Location   *time.Location
}

// Format renders one log entry.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	localTime := entry.Time
	if f.Location != nil {
		localTime = localTime.In(f.Location)
	}

	fmt.Fprintf(b, "Date: %s, Time: %s, ", localTime.Format("2006-01-02"), localTime.Format("15:04:05"))
	fmt.Fprintf(b, "Event Source: %s, ", f.SystemName)
	fmt.Fprintf(b, "Event Type: %s, ", strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(b, "Event ID: %s, ", uuid.New().String())
	fmt.Fprintf(b, "Message: %s", entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, ", %s: %v", k, entry.Data[k])
		}
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, ", Location: %s:%d in %s", filepath.Base(entry.Caller.File), entry.Caller.Line, entry.Caller.Function)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// InitLogger configures the global logger once. With cfg.File set, output goes
// to a rotating file, otherwise to stdout.
func InitLogger(cfg config.LogConfig) {
	once.Do(func() {
		Configure(Logger, cfg)
		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, level %s", SystemName, Logger.GetLevel())
	})
}

// Configure applies cfg to l.
func Configure(l *logrus.Logger, cfg config.LogConfig) {
	l.SetOutput(output(cfg.File))
	l.SetFormatter(&CustomFormatter{SystemName: SystemName})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		defer l.Warnf("Event ID: LOG_LEVEL_INVALID, Description: Unknown log level %q, falling back to %s", cfg.Level, level)
	}
	if cfg.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(level >= logrus.DebugLevel)
}

func output(file string) io.Writer {
	if file == "" {
		return os.Stdout
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			logrus.Errorf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory %s: %v", dir, err)
			return os.Stdout
		}
	}
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}
