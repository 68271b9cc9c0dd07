package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// run executes the root command with fresh flag state and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	out = &buf
	configFile = ""
	logLevel = "error"
	searchFormat = "text"
	copyIndex = 0
	t.Cleanup(func() { out = os.Stdout })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSearchCommand(t *testing.T) {
	cfg := writeConfig(t, "builtins: [math]\nclipboard: memory\n")

	got, err := run(t, "search", "--config", cfg, "--log-level", "error", "sqrt(4)")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	want := "0\t[Math] sqrt(4) = -2\n1\t[Math] sqrt(4) = 2\n"
	if got != want {
		t.Errorf("search output = %q, want %q", got, want)
	}
}

func TestSearchCommandJoinsArgs(t *testing.T) {
	cfg := writeConfig(t, "builtins: [math]\nclipboard: memory\n")

	got, err := run(t, "search", "--config", cfg, "1", "+", "2")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got != "0\t[Math] 1 + 2 = 3\n" {
		t.Errorf("search output = %q", got)
	}
}

func TestSearchCommandInvalidFormat(t *testing.T) {
	if _, err := run(t, "search", "--format", "csv", "1+1"); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestSearchCommandBadConfig(t *testing.T) {
	cfg := writeConfig(t, "builtins: [weather]\n")

	if _, err := run(t, "search", "--config", cfg, "1+1"); err == nil {
		t.Error("expected error for unknown builtin")
	}
}

func TestCopyCommand(t *testing.T) {
	cfg := writeConfig(t, "builtins: [math]\nclipboard: memory\n")

	got, err := run(t, "copy", "--config", cfg, "--index", "1", "sqrt(4)")
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if got != "2\n" {
		t.Errorf("copy output = %q, want %q", got, "2\n")
	}
}

func TestCopyCommandErrors(t *testing.T) {
	cfg := writeConfig(t, "builtins: [math]\nclipboard: memory\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no results", []string{"copy", "--config", cfg, "hello"}},
		{"index out of range", []string{"copy", "--config", cfg, "--index", "5", "1+1"}},
		{"negative index", []string{"copy", "--config", cfg, "--index=-1", "1+1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}
