package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/config"
	"github.com/sha1n/docscan/internal/index"
	mcputil "github.com/sha1n/docscan/internal/mcp"
)

// RunParams contains dependencies for the serve command
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(context.Context, *mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings, string) (*mcp.Server, error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
	Stderr            io.Writer
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
		Stderr:         os.Stderr,
	}
}

// RunWithDeps runs the MCP server with the provided dependencies until ctx is
// done or the transport fails.
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Always log to stderr, stdout belongs to the stdio transport
	stderr := params.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := NewLogger(stderr, settings.Level())
	slog.SetDefault(logger)

	logger.Info("Starting docscan MCP server", "version", version)
	config.LogServerWithLogger(settings, logger)
	logger.Debug("Resolved settings", "settings", settings)

	mcpServer, err := params.CreateServer(settings, version)
	if err != nil {
		return err
	}

	if settings.Server.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	logger.Info("Starting SSE server", "host", settings.Server.Host, "port", settings.Server.Port)
	return params.StartSSEServer(ctx, mcpServer, settings)
}

// CreateMCPServer creates the MCP server with registered tools. The
// search_matches tool is only offered when an index folder is configured.
func CreateMCPServer(settings *config.Settings, version string) (*mcp.Server, error) {
	logger := slog.Default()

	var indexer *index.Indexer
	if settings.Index.Dir != "" {
		if err := os.MkdirAll(settings.Index.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index folder: %w", err)
		}
		indexer = index.NewIndexer(settings.Index.Dir)
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "docscan",
		Version:    version,
		Scan:       mcputil.NewScanHandler(settings.Scan, NewScanFunc(logger, settings.Output.LogDir), indexer, logger),
		Index:      indexer,
		MaxResults: settings.Index.MaxResults,
	})

	return server, nil
}
