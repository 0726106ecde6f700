// logger.go - Structured logging for the shielded pool daemon
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// auditWriter passes only warn-and-above events through to the audit file.
type auditWriter struct {
	w io.Writer
}

func (a auditWriter) Write(p []byte) (int, error) {
	// Plain Write is only reached for events without a level; skip them.
	return len(p), nil
}

func (a auditWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.WarnLevel {
		return len(p), nil
	}
	return a.w.Write(p)
}

// NewLogger builds the daemon logger: console output, optional JSON log
// file, and an optional warn-level audit file. The returned closer releases
// the file handles.
func NewLogger(cfg *Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout}}
	var files []*os.File

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		files = append(files, f)
	}

	if cfg.EnableAudit && cfg.AuditLogPath != "" {
		f, err := os.OpenFile(cfg.AuditLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return zerolog.Nop(), nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		writers = append(writers, auditWriter{w: f})
		files = append(files, f)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	closer := func() {
		for _, f := range files {
			f.Close()
		}
	}
	return logger, closer, nil
}
