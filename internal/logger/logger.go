package logger

import (
	"log"

	"go.uber.org/zap"
)

var Logger = zap.NewNop()

// InitializeLogger builds the global logger. env "production" selects JSON
// output at info level, anything else the development console encoder.
func InitializeLogger(env string) *zap.Logger {
	var err error
	var logger *zap.Logger
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	Logger = logger
	return logger
}

// Close flushes buffered log entries.
func Close() {
	if err := Logger.Sync(); err != nil {
		log.Printf("failed to flush log entries: %v", err)
	}
}

func GetLogger() *zap.Logger {
	return Logger
}
