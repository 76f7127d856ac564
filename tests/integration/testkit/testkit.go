package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/docscan/internal/app"
)

// Property names published by the services of this package
const (
	PropBaseURL  = "base_url"
	PropIndexDir = "index_dir"
	PropDocsDir  = "docs_dir"
	PropTermList = "term_list"
)

// Service is a test dependency that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// Env starts services in order and stops them in reverse order. Properties
// published by each service are merged into one map.
type Env struct {
	services   []Service
	started    int
	properties map[string]any
}

// NewEnv creates an environment for the given services
func NewEnv(services ...Service) *Env {
	return &Env{services: services, properties: make(map[string]any)}
}

// Start starts every service. On failure the services already started are
// stopped again.
func (e *Env) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			_ = e.Stop()
			return nil, fmt.Errorf("%s: %w", s.GetName(), err)
		}
		e.started++
		for k, v := range props {
			e.properties[k] = v
		}
	}
	return e.properties, nil
}

// Stop stops the started services in reverse order and joins their errors.
func (e *Env) Stop() error {
	var errs []error
	for ; e.started > 0; e.started-- {
		if err := e.services[e.started-1].Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Property returns a published property.
func (e *Env) Property(name string) (any, bool) {
	val, ok := e.properties[name]
	return val, ok
}

// MustStart starts env and registers its shutdown with t.
func MustStart(t testing.TB, env *Env) map[string]any {
	t.Helper()
	props, err := env.Start()
	if err != nil {
		t.Fatalf("Failed to start test environment: %v", err)
	}
	t.Cleanup(func() {
		if err := env.Stop(); err != nil {
			t.Errorf("Failed to stop test environment: %v", err)
		}
	})
	return props
}

// Corpus is a folder of documents plus a term list.
type Corpus struct {
	Dir      string
	TermList string
}

// GetName implements Service.
func (c *Corpus) GetName() string { return "corpus" }

// Start implements Service. The files already exist, it only publishes their paths.
func (c *Corpus) Start() (map[string]any, error) {
	return map[string]any{PropDocsDir: c.Dir, PropTermList: c.TermList}, nil
}

// Stop implements Service.
func (c *Corpus) Stop() error { return nil }

// NewCorpus writes docs into a temp folder and terms as a JSON object term list
// next to it.
func NewCorpus(t testing.TB, docs map[string]string, terms string) *Corpus {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "docs")

	for name, content := range docs {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}

	termList := filepath.Join(base, "terms.json")
	if err := os.WriteFile(termList, []byte(terms), 0o644); err != nil {
		t.Fatalf("Failed to write term list: %v", err)
	}
	return &Corpus{Dir: dir, TermList: termList}
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewServeFlags
type FlagOptions struct {
	Port     int      // Uses free port if 0
	Host     string   // Defaults to "localhost"
	AuthType string   // Defaults to "none"
	APIKeys  []string // Used with AuthType "apikey"
	IndexDir string   // No index when empty
}

// NewServeFlags creates a parsed serve FlagSet using the SSE transport
func NewServeFlags(t testing.TB, opts FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	app.RegisterServeFlags(flags)

	if opts.Port == 0 {
		opts.Port = MustGetFreePort(t)
	}
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.AuthType == "" {
		opts.AuthType = "none"
	}

	args := []string{
		"--transport", "sse",
		"--host", opts.Host,
		"--port", strconv.Itoa(opts.Port),
		"--auth-type", opts.AuthType,
		"--extensions", ".txt,.md",
	}
	for _, key := range opts.APIKeys {
		args = append(args, "--auth-api-keys", key)
	}
	if opts.IndexDir != "" {
		args = append(args, "--index-dir", opts.IndexDir)
	}

	if err := flags.Parse(args); err != nil {
		t.Fatalf("Failed to parse serve flags: %v", err)
	}
	return flags
}

// ServerService runs the serve command over SSE until it is stopped.
type ServerService struct {
	Flags  *pflag.FlagSet
	cancel context.CancelFunc
	done   chan error
}

// GetName implements Service.
func (s *ServerService) GetName() string { return "docscan-sse" }

// Start implements Service. It returns once /health answers.
func (s *ServerService) Start() (map[string]any, error) {
	host, _ := s.Flags.GetString("host")
	port, _ := s.Flags.GetInt("port")
	indexDir, _ := s.Flags.GetString("index-dir")
	baseURL := fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port)))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)

	params := app.DefaultRunParams()
	params.Stderr = os.Stderr
	go func() {
		s.done <- app.RunWithDeps(ctx, params, s.Flags, "test")
	}()

	if err := waitForHealth(baseURL, s.done, 5*time.Second); err != nil {
		cancel()
		return nil, err
	}
	return map[string]any{PropBaseURL: baseURL, PropIndexDir: indexDir}, nil
}

// Stop implements Service.
func (s *ServerService) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(10 * time.Second):
		return errors.New("server did not stop")
	}
}

func waitForHealth(baseURL string, done <-chan error, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			return fmt.Errorf("server exited during startup: %w", err)
		default:
		}

		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not healthy after %s", baseURL, timeout)
}
