package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunStrategies(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"strategies"}, &stdout, &stderr); code != exitPass {
		t.Fatalf("expected success, got %d: %s", code, stderr.String())
	}
	if got := strings.Fields(stdout.String()); len(got) != 4 || got[1] != "sliding-window" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"help"}, &stdout, &stderr); code != exitPass {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(stdout.String(), "--preserve-last") {
		t.Fatalf("expected flag usage, got %q", stdout.String())
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != exitError {
		t.Fatalf("expected usage error, got %d", code)
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "qaweave.yaml")
	if err := os.WriteFile(cfgPath, []byte("context:\n  strategy: summarize\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "k")
	t.Setenv("ANTHROPIC_MODEL", "m")
	stderr.Reset()
	code := run([]string{"run", "-i", "x.md", "-c", cfgPath, "--env-file", filepath.Join(dir, "none.env")}, &stdout, &stderr)
	if code != exitError || !strings.Contains(stderr.String(), "unknown context strategy") {
		t.Fatalf("expected config error, got %d: %s", code, stderr.String())
	}
}
