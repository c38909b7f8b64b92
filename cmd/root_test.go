package cmd

import (
	"log/slog"
	"testing"

	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

func TestLogLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	if got := logLevel(); got != slog.LevelInfo {
		t.Errorf("logLevel() = %v, want %v", got, slog.LevelInfo)
	}

	t.Setenv("DEBUG", "1")
	if got := logLevel(); got != slog.LevelDebug {
		t.Errorf("logLevel() with DEBUG set = %v, want %v", got, slog.LevelDebug)
	}
}

func TestNewRootCmd_RegistersCommands(t *testing.T) {
	root := newRootCmd(&config.Config{}, log.NewNop())

	want := []string{
		"import", "import-folder", "search", "docs", "jobs",
		"review", "collections", "repos", "graph", "recents", "version",
	}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestReviewCmd_RegistersSubcommands(t *testing.T) {
	review := newReviewCmd(&config.Config{}, log.NewNop())

	for _, name := range []string{"start", "status", "history"} {
		found := false
		for _, c := range review.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("review subcommand %q not registered", name)
		}
	}
}
