package utils

/*
A leveled logger facade over zap, every package gets a tagged child of one base logger
*/

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogErrorLevel int = 0
	LogWarnLevel  int = 1
	LogInfoLevel  int = 2
	LogDebugLevel int = 3

	defaultCallDepth = 1
)

var (
	defaultLog *Logger
	base       *zap.Logger
	atom       = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func init() {
	config := zap.NewProductionConfig()
	config.Level = atom
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{"service": "996.mesh"}

	var err error
	if base, err = config.Build(zap.AddCallerSkip(defaultCallDepth)); err != nil {
		fmt.Fprintf(os.Stderr, "build logger failed:%v\n", err)
		os.Exit(1)
	}
	defaultLog = NewLogger("")
}

// SetLogLevel accepts one of the Log*Level constants
func SetLogLevel(level int) {
	switch level {
	case LogErrorLevel:
		atom.SetLevel(zapcore.ErrorLevel)
	case LogWarnLevel:
		atom.SetLevel(zapcore.WarnLevel)
	case LogInfoLevel:
		atom.SetLevel(zapcore.InfoLevel)
	default:
		atom.SetLevel(zapcore.DebugLevel)
	}
}

// GetDefaultLog returns the untagged logger
func GetDefaultLog() *Logger {
	return defaultLog
}

// Sync flushes the buffered entries, call it before the process exits
func Sync() {
	base.Sync()
}

type Logger struct {
	s *zap.SugaredLogger
}

func NewLogger(tag string) *Logger {
	l := base
	if len(tag) != 0 {
		l = l.Named(tag)
	}
	return &Logger{s: l.Sugar()}
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.s.Fatalf(trimNewline(format), v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.s.Errorf(trimNewline(format), v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.s.Warnf(trimNewline(format), v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.s.Infof(trimNewline(format), v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.s.Debugf(trimNewline(format), v...)
}

// the printf style call sites end with \n, zap adds its own line break
func trimNewline(format string) string {
	if n := len(format); n > 0 && format[n-1] == '\n' {
		return format[:n-1]
	}
	return format
}
