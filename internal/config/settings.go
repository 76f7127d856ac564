package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by docscan
const EnvPrefix = "DOCSCAN"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ScanSettings configuration for a scan job
type ScanSettings struct {
	Folder        string   `mapstructure:"folder"`
	TermList      string   `mapstructure:"term_list"`
	Extensions    []string `mapstructure:"extensions"`
	Recursive     bool     `mapstructure:"recursive"`
	Exclude       []string `mapstructure:"exclude"`
	MaxFileSize   int64    `mapstructure:"max_file_size"`
	Before        int      `mapstructure:"before"`
	After         int      `mapstructure:"after"`
	Workers       int      `mapstructure:"workers"`
	CaseSensitive bool     `mapstructure:"case_sensitive"`
	Dedupe        bool     `mapstructure:"dedupe"`
	Normalize     bool     `mapstructure:"normalize"`
}

// OutputSettings configuration for job output
type OutputSettings struct {
	Dir     string `mapstructure:"dir"`
	Summary bool   `mapstructure:"summary"`
	CSV     bool   `mapstructure:"csv"`
	SQLite  string `mapstructure:"sqlite"`
	LogDir  string `mapstructure:"log_dir"`
}

// IndexSettings configuration for the match index
type IndexSettings struct {
	Dir        string `mapstructure:"dir"`
	MaxResults int    `mapstructure:"max_results"`
}

// ServerSettings configuration for the MCP server
type ServerSettings struct {
	Transport string `mapstructure:"transport"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
}

// LogSettings configuration for logging
type LogSettings struct {
	Verbose bool `mapstructure:"verbose"`
}

// Settings application settings
type Settings struct {
	Scan   ScanSettings   `mapstructure:"scan"`
	Output OutputSettings `mapstructure:"output"`
	Index  IndexSettings  `mapstructure:"index"`
	Server ServerSettings `mapstructure:"server"`
	Auth   AuthSettings   `mapstructure:"auth"`
	Log    LogSettings    `mapstructure:"log"`
}

// Level returns the log level implied by the settings.
func (s *Settings) Level() slog.Level {
	if s.Log.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// flagKeys maps each settings key to the CLI flag that overrides it.
var flagKeys = map[string]string{
	"scan.folder":         "scan-folder",
	"scan.term_list":      "term-list",
	"scan.extensions":     "extensions",
	"scan.recursive":      "recursive",
	"scan.exclude":        "exclude",
	"scan.max_file_size":  "max-file-size",
	"scan.before":         "before",
	"scan.after":          "after",
	"scan.workers":        "workers",
	"scan.case_sensitive": "case-sensitive",
	"scan.dedupe":         "dedupe",
	"scan.normalize":      "normalize",
	"output.dir":          "output-folder",
	"output.summary":      "summary",
	"output.csv":          "csv",
	"output.sqlite":       "sqlite",
	"output.log_dir":      "log-dir",
	"index.dir":           "index-dir",
	"index.max_results":   "max-results",
	"server.transport":    "transport",
	"server.host":         "host",
	"server.port":         "port",
	"auth.type":           "auth-type",
	"auth.basic.username": "auth-basic-username",
	"auth.basic.password": "auth-basic-password",
	"auth.api_keys":       "auth-api-keys",
	"log.verbose":         "verbose",
}

// EnvName returns the environment variable bound to a settings key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used. Flags missing from
// the set are ignored, so each subcommand binds only what it registers.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("scan.extensions", []string{".pdf"})
	v.SetDefault("scan.recursive", false)
	v.SetDefault("scan.max_file_size", int64(0))
	v.SetDefault("scan.before", 50)
	v.SetDefault("scan.after", 50)
	v.SetDefault("scan.workers", runtime.NumCPU())
	v.SetDefault("output.dir", "./results")
	v.SetDefault("output.summary", false)
	v.SetDefault("output.log_dir", "./logs")
	v.SetDefault("index.max_results", 20)
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flagName := range flagKeys {
		_ = v.BindEnv(key, EnvName(key))

		// Bind CLI flags if provided (highest priority)
		if flags != nil {
			if f := flags.Lookup(flagName); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Lists given as comma-separated env values
	settings.Auth.APIKeys = envList(EnvName("auth.api_keys"), settings.Auth.APIKeys)
	settings.Scan.Extensions = envList(EnvName("scan.extensions"), settings.Scan.Extensions)
	settings.Scan.Exclude = envList(EnvName("scan.exclude"), settings.Scan.Exclude)

	settings.Output.Dir = expandHomeDir(settings.Output.Dir)
	settings.Output.LogDir = expandHomeDir(settings.Output.LogDir)
	settings.Output.SQLite = expandHomeDir(settings.Output.SQLite)
	settings.Index.Dir = expandHomeDir(settings.Index.Dir)
	settings.Scan.Folder = expandHomeDir(settings.Scan.Folder)
	settings.Scan.TermList = expandHomeDir(settings.Scan.TermList)

	return &settings, nil
}

// envList splits a comma-separated env value when viper handed it over as a
// single item, then trims and drops empty entries.
func envList(envName string, values []string) []string {
	if raw := os.Getenv(envName); raw != "" {
		if len(values) == 0 || (len(values) == 1 && strings.Contains(values[0], ",")) {
			values = strings.Split(raw, ",")
		}
	}

	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return filterEmptyStrings(values)
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting server and auth configurations.
func ValidateSettings(s *Settings) error {
	switch s.Server.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Server.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if s.Index.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}

	return nil
}

// ValidateScanSettings checks the settings a scan job needs: the scan folder
// must be an existing directory, the term list an existing file, and the
// context window non-negative.
func ValidateScanSettings(s *ScanSettings) error {
	if s.Folder == "" {
		return errors.New("scan-folder is required")
	}
	info, err := os.Stat(s.Folder)
	if err != nil {
		return fmt.Errorf("scan-folder %s does not exist", s.Folder)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan-folder %s is not a directory", s.Folder)
	}

	if s.TermList == "" {
		return errors.New("term-list is required")
	}
	info, err = os.Stat(s.TermList)
	if err != nil {
		return fmt.Errorf("term-list %s does not exist", s.TermList)
	}
	if info.IsDir() {
		return fmt.Errorf("term-list %s is not a file", s.TermList)
	}

	if s.Before < 0 {
		return fmt.Errorf("before must be non-negative, got %d", s.Before)
	}
	if s.After < 0 {
		return fmt.Errorf("after must be non-negative, got %d", s.After)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", s.Workers)
	}
	if s.MaxFileSize < 0 {
		return errors.New("max-file-size must be non-negative")
	}

	return nil
}
