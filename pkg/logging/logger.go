package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides structured debug logging for n1browse components.
// All logs are written to a session-specific file in ~/.n1-browse/logs/
//
// The console owns stdout, so logs never go there. When the log directory
// is unusable the logger falls back to stderr.
type Logger struct {
	sessionID string
	component string
	sugar     *zap.SugaredLogger
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error

	// writers are shared per log path so components append to one rotating file.
	writersMu sync.Mutex
	writers   = make(map[string]*lumberjack.Logger)
)

const (
	maxLogSizeMB  = 20
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			dir, err := homedir.Expand("~/.n1-browse/logs")
			if err != nil {
				initErr = fmt.Errorf("failed to resolve home directory: %w", err)
				return
			}
			logDir = dir
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

func sharedWriter(path string) *lumberjack.Logger {
	writersMu.Lock()
	defer writersMu.Unlock()

	w, ok := writers[path]
	if !ok {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
		writers[path] = w
	}
	return w
}

// NewLogger creates a new logger for a specific component.
// The logger writes JSON lines to ~/.n1-browse/logs/<session-id>-n1browse.log
//
// If the log directory cannot be created it returns a fallback logger that
// writes to stderr along with the error. Callers can check the error to
// detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-n1browse.log", sessID))

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(sharedWriter(logPath)),
		zap.DebugLevel,
	)

	base := zap.New(core).Named(component).With(zap.String("session", sessID))

	return &Logger{
		sessionID: sessID,
		component: component,
		sugar:     base.Sugar(),
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.WarnLevel,
	)
	sugar := zap.New(core).Named(component).Sugar()
	sugar.Warnf("Failed to initialize file logging, falling back to stderr: %v", err)

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		sugar:     sugar,
	}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{component: "nop", sugar: zap.NewNop().Sugar()}
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: l.component,
		sugar:     l.sugar.With(keysAndValues...),
		logPath:   l.logPath,
	}
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, or "" in fallback mode
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes buffered entries. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		// Sync on a file-backed core flushes lumberjack; stderr sync errors are noise.
		if l.logPath != "" {
			err = l.sugar.Sync()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
