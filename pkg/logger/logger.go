// Package logger builds the process logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// InitLogger returns a logger at levelStr writing to console and, when
// filePath is set, appending to that file. Unknown levels fall back to info.
// A nil console means stderr. The returned close func releases the log file
// and is safe to call more than once.
func InitLogger(levelStr, filePath string, console io.Writer) (*logrus.Logger, func() error, error) {
	log := logrus.New()

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if console == nil {
		console = os.Stderr
	}
	if filePath == "" {
		log.SetOutput(console)
		return log, func() error { return nil }, nil
	}

	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(io.MultiWriter(console, file))

	closed := false
	closeFn := func() error {
		if closed {
			return nil
		}
		closed = true
		log.SetOutput(console)
		return file.Close()
	}
	return log, closeFn, nil
}
