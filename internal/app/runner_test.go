package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/config"
)

// noopValidate is a no-op validation function for tests
func noopValidate(*config.Settings) error {
	return nil
}

func sseSettings(*pflag.FlagSet) (*config.Settings, error) {
	return &config.Settings{Server: config.ServerSettings{Transport: config.TransportSSE}}, nil
}

func stdioSettings(*pflag.FlagSet) (*config.Settings, error) {
	return &config.Settings{Server: config.ServerSettings{Transport: config.TransportStdio}}, nil
}

func emptyServer(*config.Settings, string) (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil), nil
}

func TestRunWithDeps_ErrorCases(t *testing.T) {
	tests := []struct {
		name           string
		params         RunParams
		wantErrContain string
	}{
		{
			name: "LoadSettings error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return nil, errors.New("settings error")
				},
				ValidSettings: noopValidate,
			},
			wantErrContain: "failed to load settings",
		},
		{
			name: "ValidSettings error",
			params: RunParams{
				LoadSettings: sseSettings,
				ValidSettings: func(*config.Settings) error {
					return errors.New("validation error")
				},
			},
			wantErrContain: "invalid configuration",
		},
		{
			name: "CreateServer error",
			params: RunParams{
				LoadSettings:  sseSettings,
				ValidSettings: noopValidate,
				CreateServer: func(*config.Settings, string) (*mcp.Server, error) {
					return nil, errors.New("create server error")
				},
			},
			wantErrContain: "create server error",
		},
		{
			name: "StartSSEServer error",
			params: RunParams{
				LoadSettings:  sseSettings,
				ValidSettings: noopValidate,
				CreateServer:  emptyServer,
				StartSSEServer: func(context.Context, *mcp.Server, *config.Settings) error {
					return errors.New("sse start error")
				},
			},
			wantErrContain: "sse start error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Stderr = &bytes.Buffer{}
			err := RunWithDeps(context.Background(), tt.params, nil, "test")
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErrContain)
			}
			if !strings.Contains(err.Error(), tt.wantErrContain) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErrContain, err.Error())
			}
		})
	}
}

func TestRunWithDeps_LogsToStderr(t *testing.T) {
	var stderr bytes.Buffer
	params := RunParams{
		LoadSettings:  sseSettings,
		ValidSettings: noopValidate,
		CreateServer:  emptyServer,
		StartSSEServer: func(context.Context, *mcp.Server, *config.Settings) error {
			return nil
		},
		Stderr: &stderr,
	}

	if err := RunWithDeps(context.Background(), params, nil, "1.2.3"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "version=1.2.3") {
		t.Errorf("Expected startup log with version, got:\n%s", stderr.String())
	}
}

func TestDefaultRunParams(t *testing.T) {
	params := DefaultRunParams()

	if params.LoadSettings == nil {
		t.Error("LoadSettings is nil")
	}
	if params.ValidSettings == nil {
		t.Error("ValidSettings is nil")
	}
	if params.StartSSEServer == nil {
		t.Error("StartSSEServer is nil")
	}
	if params.CreateServer == nil {
		t.Error("CreateServer is nil")
	}
}

func TestRunWithDeps_StdioWithCustomTransport(t *testing.T) {
	transportUsed := false
	params := RunParams{
		LoadSettings:      stdioSettings,
		ValidSettings:     noopValidate,
		CreateServer:      emptyServer,
		CustomIOTransport: &mockTransport{connectCalled: &transportUsed},
		Stderr:            &bytes.Buffer{},
	}

	// Use a cancelled context to avoid hanging
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = RunWithDeps(ctx, params, nil, "test")

	if !transportUsed {
		t.Error("Custom transport Connect was not called")
	}
}

func TestCreateMCPServer(t *testing.T) {
	tests := []struct {
		name      string
		indexDir  string
		wantTools []string
	}{
		{name: "scan only", wantTools: []string{"scan_documents"}},
		{name: "scan and search", indexDir: filepath.Join(t.TempDir(), "index"), wantTools: []string{"scan_documents", "search_matches"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &config.Settings{
				Server: config.ServerSettings{Transport: config.TransportStdio},
				Index:  config.IndexSettings{Dir: tt.indexDir, MaxResults: 20},
			}

			server, err := CreateMCPServer(settings, "test")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			names := listTools(t, server)
			if strings.Join(names, ",") != strings.Join(tt.wantTools, ",") {
				t.Errorf("Expected tools %v, got %v", tt.wantTools, names)
			}
		})
	}
}

func listTools(t *testing.T, server *mcp.Server) []string {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

// mockTransport implements mcp.Transport for testing
type mockTransport struct {
	connectCalled *bool
}

func (m *mockTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	if m.connectCalled != nil {
		*m.connectCalled = true
	}
	return nil, errors.New("mock transport - no real connection")
}
