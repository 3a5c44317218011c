package logger

import (
	"io"
	"os"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/sirupsen/logrus"
)

var output io.Writer = os.Stdout

// Init routes hlog to stdout and the rotated log file at the configured level.
func Init() {
	output = io.MultiWriter(os.Stdout, newOutput())
	hlog.SetOutput(output)
	hlog.SetLevel(newLevel())
}

// NewDebugLogger returns the structured logger adapter debug entries are written to.
func NewDebugLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}
