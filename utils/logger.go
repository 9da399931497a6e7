package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	// InfoLogger -> stdout
	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// ErrorLogger -> stderr
	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(levelFromEnv(logrus.InfoLevel))
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

func levelFromEnv(fallback logrus.Level) logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return fallback
	}
	return lvl
}

func init() {
	// packages log from init paths and tests before main runs
	InitLogger()
}
