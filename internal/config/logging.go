package config

import (
	"context"
	"log/slog"
)

// LogWithLogger logs the resolved scan settings in a granular way, skipping unset optional ones
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: scan.folder", "value", s.Scan.Folder)
	logger.InfoContext(ctx, "Config: scan.term_list", "value", s.Scan.TermList)
	logger.InfoContext(ctx, "Config: scan.extensions", "value", s.Scan.Extensions)
	logger.InfoContext(ctx, "Config: scan.recursive", "value", s.Scan.Recursive)
	logger.InfoContext(ctx, "Config: scan.context", "before", s.Scan.Before, "after", s.Scan.After)
	logger.InfoContext(ctx, "Config: scan.workers", "value", s.Scan.Workers)
	if len(s.Scan.Exclude) > 0 {
		logger.InfoContext(ctx, "Config: scan.exclude", "value", s.Scan.Exclude)
	}
	if s.Scan.MaxFileSize > 0 {
		logger.InfoContext(ctx, "Config: scan.max_file_size", "value", s.Scan.MaxFileSize)
	}
	if s.Scan.CaseSensitive || s.Scan.Dedupe || s.Scan.Normalize {
		logger.InfoContext(ctx, "Config: scan.options",
			"case_sensitive", s.Scan.CaseSensitive, "dedupe", s.Scan.Dedupe, "normalize", s.Scan.Normalize)
	}

	logger.InfoContext(ctx, "Config: output.dir", "value", s.Output.Dir)
	logger.InfoContext(ctx, "Config: output.summary", "value", s.Output.Summary)
	if s.Output.CSV {
		logger.InfoContext(ctx, "Config: output.csv", "value", true)
	}
	if s.Output.SQLite != "" {
		logger.InfoContext(ctx, "Config: output.sqlite", "value", s.Output.SQLite)
	}
	if s.Index.Dir != "" {
		logger.InfoContext(ctx, "Config: index.dir", "value", s.Index.Dir)
	}
}

// LogServerWithLogger logs the resolved server settings using the provided logger
func LogServerWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Server.Transport)
	if s.Server.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: host", "value", s.Server.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Server.Port)
	}

	logger.InfoContext(ctx, "Config: index.dir", "value", s.Index.Dir)
	logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}
}

// LogValue implements slog.LogValuer, masking credentials
func (s AuthSettings) LogValue() slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.Any("basic", s.Basic),
		slog.Any("api_keys", keys),
	)
}

// LogValue implements slog.LogValuer, masking the password
func (s BasicAuthSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", "****"),
	)
}

// LogValue implements slog.LogValuer, masking credentials
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scan_folder", s.Scan.Folder),
		slog.String("term_list", s.Scan.TermList),
		slog.String("output_dir", s.Output.Dir),
		slog.String("index_dir", s.Index.Dir),
		slog.String("transport", s.Server.Transport),
		slog.String("host", s.Server.Host),
		slog.Int("port", s.Server.Port),
		slog.Any("auth", s.Auth),
	)
}
