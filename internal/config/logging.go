package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultMaxLogFiles is how many server-*.log files are kept in LogDir.
const DefaultMaxLogFiles = 10

const logFileLayout = "2006-01-02T15-04-05"

// NewLogger builds the JSON slog logger for cfg. Output goes to stdout and,
// when LogDir is set, is mirrored to a fresh timestamped file in that
// directory. The returned close func releases the file and is never nil.
func NewLogger(cfg *Config, stdout io.Writer) (*slog.Logger, func() error, error) {
	out := stdout
	closeFn := func() error { return nil }

	if cfg.LogDir != "" {
		f, err := openLogFile(cfg.LogDir, DefaultMaxLogFiles, time.Now())
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(stdout, f)
		closeFn = f.Close
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	return logger, closeFn, nil
}

// openLogFile creates server-<timestamp>.log in dir and prunes the oldest
// files so at most maxFiles remain.
func openLogFile(dir string, maxFiles int, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("server-%s.log", now.Format(logFileLayout)))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if err := pruneLogs(dir, maxFiles); err != nil {
		// Logging still works without pruning.
		fmt.Fprintf(os.Stderr, "warning: failed to prune old logs: %v\n", err)
	}
	return f, nil
}

func pruneLogs(dir string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	if err != nil {
		return err
	}
	if maxFiles <= 0 || len(files) <= maxFiles {
		return nil
	}

	// Timestamp layout sorts chronologically.
	sort.Strings(files)
	for _, old := range files[:len(files)-maxFiles] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove %s: %w", old, err)
		}
	}
	return nil
}
