package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetDefaultFile points the default logger at a log file, keeping slog output
// off the terminal. When the file cannot be opened the default logger is
// silenced instead.
func SetDefaultFile(path string, level slog.Level) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(NewHandler(io.Discard, &Options{Level: level})))
		return
	}
	slog.SetDefault(slog.New(NewHandler(f, &Options{Level: level})))
}
