package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared application logger instance.
var Log = logrus.New()

// Init configures the global logger. It must be called once at startup,
// before any other package logs.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
}
