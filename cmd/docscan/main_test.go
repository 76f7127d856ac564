package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sha1n/docscan/internal/app"
)

func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), "1.0.0", "abc123", "docscan", []string{"--version"})
	if err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"scan", "--help"}, {"search", "--help"}, {"serve", "--help"}, {"terms", "validate", "--help"}} {
		if err := Execute(context.Background(), "1.0.0", "abc123", "docscan", args); err != nil {
			t.Errorf("Expected no error for %v, got: %v", args, err)
		}
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	err := Execute(context.Background(), "1.0.0", "abc123", "docscan", []string{"--invalid-flag"})
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_ServeInvalidTransport(t *testing.T) {
	err := Execute(context.Background(), "1.0.0", "abc123", "docscan", []string{"serve", "--transport", "invalid"})
	if err == nil {
		t.Fatal("Expected error for invalid transport")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("Expected error about transport, got: %v", err)
	}
}

func TestExecute_ScanRequiresFolder(t *testing.T) {
	err := Execute(context.Background(), "1.0.0", "abc123", "docscan", []string{"scan", "-t", "terms.json"})
	if err == nil || !strings.Contains(err.Error(), "scan-folder is required") {
		t.Errorf("Expected scan-folder error, got: %v", err)
	}
}

func TestExecute_TermsValidate(t *testing.T) {
	terms := filepath.Join(t.TempDir(), "terms.json")
	if err := os.WriteFile(terms, []byte(`[{"term": "id", "regex": "ID-\\d+"}]`), 0o644); err != nil {
		t.Fatalf("Failed to write term list: %v", err)
	}

	if err := Execute(context.Background(), "1.0.0", "abc123", "docscan", []string{"terms", "validate", "-t", terms}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestExecute_InterruptedScan(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatal(err)
	}
	terms := filepath.Join(dir, "terms.json")
	if err := os.WriteFile(terms, []byte(`{"id": "ID-\\d+"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Execute(ctx, "1.0.0", "abc123", "docscan", []string{
		"-s", docs, "-t", terms, "-o", filepath.Join(dir, "out"), "--log-dir", filepath.Join(dir, "logs"),
	})
	if !errors.Is(err, app.ErrInterrupted) {
		t.Errorf("Expected ErrInterrupted, got: %v", err)
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	// --help should succeed
	runMain([]string{"docscan", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"docscan", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}
