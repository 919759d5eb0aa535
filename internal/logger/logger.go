package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

type (
	Entry  = logrus.Entry
	Fields = logrus.Fields
)

// Init configures Log for the service: JSON lines on stdout, debug level
// when DEBUG=true, otherwise the level named by LOG_LEVEL (info by default).
func Init() {
	Setup(os.Stdout, levelFromEnv())
}

// Setup points Log at w with the given level. Tests use it to capture output.
func Setup(w io.Writer, level logrus.Level) {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	Log.SetOutput(w)
	Log.SetLevel(level)
}

// Component returns an entry tagged with the emitting component.
func Component(name string) *Entry {
	return Log.WithField("component", name)
}

func levelFromEnv() logrus.Level {
	if os.Getenv("DEBUG") == "true" {
		return logrus.DebugLevel
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
