package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogWithLogger_Scan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Scan: ScanSettings{
			Folder:     "/docs",
			TermList:   "terms.json",
			Extensions: []string{".pdf", ".txt"},
			Before:     10,
			After:      20,
		},
		Output: OutputSettings{Dir: "./results"},
	}

	LogWithLogger(s, logger)

	output := buf.String()
	for _, want := range []string{"scan.folder", "/docs", "terms.json", "before=10", "after=20", "output.dir"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output, got: %s", want, output)
		}
	}
	// unset optional settings are skipped
	for _, unwanted := range []string{"output.sqlite", "index.dir", "scan.exclude", "scan.options"} {
		if strings.Contains(output, unwanted) {
			t.Errorf("Expected no %q in log output", unwanted)
		}
	}
}

func TestLogWithLogger_OptionalSettings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Scan:   ScanSettings{Dedupe: true, Exclude: []string{"tmp/**"}},
		Output: OutputSettings{CSV: true, SQLite: "out.db"},
		Index:  IndexSettings{Dir: "/idx"},
	}

	LogWithLogger(s, logger)

	output := buf.String()
	for _, want := range []string{"dedupe=true", "tmp/**", "output.csv", "out.db", "/idx"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output, got: %s", want, output)
		}
	}
}

func TestLogServerWithLogger_StdioTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Server: ServerSettings{Transport: TransportStdio, Host: "localhost", Port: 8080},
		Auth:   AuthSettings{Type: AuthTypeNone},
	}

	LogServerWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "transport") {
		t.Error("Expected 'transport' in log output")
	}
	// stdio transport should not log host/port
	if strings.Contains(output, "host") {
		t.Error("Expected no 'host' in log output for stdio transport")
	}
}

func TestLogServerWithLogger_SSETransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Server: ServerSettings{Transport: TransportSSE, Host: "localhost", Port: 8080},
		Auth:   AuthSettings{Type: AuthTypeNone},
	}

	LogServerWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "host") {
		t.Error("Expected 'host' in log output for SSE transport")
	}
	if !strings.Contains(output, "port") {
		t.Error("Expected 'port' in log output for SSE transport")
	}
}

func TestLogServerWithLogger_BasicAuth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Server: ServerSettings{Transport: TransportStdio},
		Auth: AuthSettings{
			Type: AuthTypeBasic,
			Basic: BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
	}

	LogServerWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "admin") {
		t.Error("Expected username in log output")
	}
	if !strings.Contains(output, "****") {
		t.Error("Expected masked password in log output")
	}
	if strings.Contains(output, "secret") {
		t.Error("Password should be masked, not shown in plain text")
	}
}

func TestLogServerWithLogger_APIKeyAuth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := &Settings{
		Server: ServerSettings{Transport: TransportStdio},
		Auth: AuthSettings{
			Type:    AuthTypeAPIKey,
			APIKeys: []string{"key1", "key2", "key3"},
		},
	}

	LogServerWithLogger(s, logger)

	output := buf.String()
	if !strings.Contains(output, "count=3") {
		t.Errorf("Expected 'count=3' in log output, got: %s", output)
	}
}

func TestSettingsLogValue(t *testing.T) {
	s := &Settings{
		Server: ServerSettings{Transport: TransportSSE, Host: "localhost", Port: 8080},
		Auth: AuthSettings{
			Type:    AuthTypeAPIKey,
			APIKeys: []string{"key1"},
			Basic:   BasicAuthSettings{Username: "admin", Password: "secret"},
		},
	}

	if kind := s.LogValue().Kind(); kind != slog.KindGroup {
		t.Errorf("Expected group kind, got %v", kind)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("Resolved settings", "settings", s)
	output := buf.String()

	if strings.Contains(output, "key1") {
		t.Error("API keys should be masked")
	}
	if strings.Contains(output, "secret") {
		t.Error("Password should be masked")
	}
	for _, want := range []string{"settings.port=8080", "settings.auth.type=apikey", "settings.auth.basic.username=admin"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output, got: %s", want, output)
		}
	}
}
