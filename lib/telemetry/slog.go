package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default slog handler for the process.
// `verbose` drops the level to debug, which is what you want
// when watching a scrape run live.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
