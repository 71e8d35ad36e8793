package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerMu     sync.RWMutex
)

// InitLogger installs the process-wide text logger
func InitLogger(logLevel, logFile string, debugToConsole bool) error {
	logger, err := NewLogger(logLevel, logFile, debugToConsole, FormatText)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger replaces the process-wide logger; nil disables logging
func SetLogger(logger LoggerInterface) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	globalLogger = logger
}

// Log returns the process-wide logger, or nil before initialization
func Log() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

func LogDebug(msg string, fields ...Field) {
	if l := Log(); l != nil {
		l.Debug(msg, fields...)
	}
}

func LogInfo(msg string, fields ...Field) {
	if l := Log(); l != nil {
		l.Info(msg, fields...)
	}
}

func LogWarn(msg string, fields ...Field) {
	if l := Log(); l != nil {
		l.Warn(msg, fields...)
	}
}

func LogError(msg string, fields ...Field) {
	if l := Log(); l != nil {
		l.Error(msg, fields...)
	}
}
