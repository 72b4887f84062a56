// Package manager spawns and supervises an inferd daemon and mints proxy
// handles to the objects it hosts. Registration happens before Start; once
// the daemon is ready, Create returns typed proxies bound to its endpoint.
// There is no automatic restart: if the daemon dies, outstanding proxy
// calls fail with a connection-lost error and the operator decides what to
// do next.
package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/pkg/client"
	"inferd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultHost           = "127.0.0.1"
	defaultStartupTimeout = 30 * time.Second
	stopGracePeriod       = 2 * time.Second
)

// Config encapsulates tunables for Manager construction.
type Config struct {
	// BinPath is the inferd binary to spawn.
	BinPath string
	// Host the daemon listens on (default 127.0.0.1).
	Host string
	// PortStart/PortEnd constrain the listen port (0 = any free port).
	PortStart int
	PortEnd   int
	// StartupTimeout bounds the wait for daemon readiness.
	StartupTimeout time.Duration
	// DefaultObject names the model used when predict omits the object.
	DefaultObject string
	// ExtraArgs are appended to the daemon command line.
	ExtraArgs []string
}

// Manager owns one daemon process and the set of registered object specs.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	specs   []types.ObjectSpec
	names   map[string]types.ObjectSpec
	started bool
	stopped bool

	cmd       *exec.Cmd
	waitErrCh chan error
	stderr    bytes.Buffer
	cfgPath   string
	baseURL   string
	cli       *client.Client

	httpClient *http.Client
}

// New constructs a manager. Register objects, then Start.
func New(cfg Config) *Manager {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	return &Manager{
		cfg:        cfg,
		names:      make(map[string]types.ObjectSpec),
		httpClient: &http.Client{Timeout: 0},
	}
}

// Register associates a name with a hostable object spec. Must be called
// before Start.
func (m *Manager) Register(spec types.ObjectSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrStartup("register after start: " + spec.Name)
	}
	if spec.Name == "" {
		return errors.New("object name is required")
	}
	if _, ok := m.names[spec.Name]; ok {
		return fmt.Errorf("object already registered: %s", spec.Name)
	}
	m.names[spec.Name] = spec
	m.specs = append(m.specs, spec)
	return nil
}

// Start spawns the daemon and waits until it reports healthy. Calling
// Start twice fails.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrStartup("already started")
	}
	m.started = true
	specs := append([]types.ObjectSpec(nil), m.specs...)
	m.mu.Unlock()

	port, err := m.pickPort()
	if err != nil {
		return ErrStartup(err.Error())
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, port)
	baseURL := "http://" + addr

	cfgPath, err := m.writeDaemonConfig(addr, specs)
	if err != nil {
		return ErrStartup("write config: " + err.Error())
	}

	args := append([]string{"-config", cfgPath}, m.cfg.ExtraArgs...)
	cmd := exec.Command(m.cfg.BinPath, args...)
	// Capture stderr for diagnostics (tail is included on failure)
	cmd.Stderr = &m.stderr
	if err := cmd.Start(); err != nil {
		os.Remove(cfgPath)
		return ErrStartup("spawn daemon: " + err.Error())
	}

	m.mu.Lock()
	m.cmd = cmd
	m.cfgPath = cfgPath
	m.baseURL = baseURL
	m.waitErrCh = make(chan error, 1)
	waitErrCh := m.waitErrCh
	m.mu.Unlock()

	// Early-exit watcher: surface a failed spawn before readiness.
	go func() {
		waitErrCh <- cmd.Wait()
	}()

	deadline := time.Now().Add(m.cfg.StartupTimeout)
	for {
		if err := ctx.Err(); err != nil {
			m.killLocked()
			return ErrStartup("start canceled: " + err.Error())
		}
		if time.Now().After(deadline) {
			m.killLocked()
			return ErrStartup("daemon not ready in time: " + baseURL)
		}
		select {
		case werr := <-waitErrCh:
			// Process is gone; make Stop a no-op.
			m.mu.Lock()
			m.cmd = nil
			m.mu.Unlock()
			tail := m.stderr.String()
			if len(tail) > 4096 {
				tail = tail[len(tail)-4096:]
			}
			if werr != nil {
				return ErrStartup(fmt.Sprintf("daemon exited early: %v; stderr tail: %s", werr, tail))
			}
			return ErrStartup("daemon exited before ready; stderr tail: " + tail)
		default:
		}
		if m.isHealthy(baseURL, time.Second) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	m.mu.Lock()
	m.cli = client.New(baseURL)
	m.mu.Unlock()
	return nil
}

// Client returns the underlying daemon client, or nil before Start.
func (m *Manager) Client() *client.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cli
}

// BaseURL returns the daemon endpoint, empty before Start.
func (m *Manager) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// CreateModel instantiates the named registered model inside the daemon and
// returns a proxy to it. Before Start this fails with a connection-lost
// error; an unregistered name fails with a not-registered error.
func (m *Manager) CreateModel(ctx context.Context, name string) (*client.ModelProxy, error) {
	cli, err := m.readyClient()
	if err != nil {
		return nil, err
	}
	st, err := cli.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if st.Kind != types.KindModel {
		return nil, fmt.Errorf("object %s is a %s, not a model", name, st.Kind)
	}
	return cli.Model(name), nil
}

// CreateCollection instantiates the named registered collection inside the
// daemon and returns a proxy to it.
func (m *Manager) CreateCollection(ctx context.Context, name string) (*client.CollectionProxy, error) {
	cli, err := m.readyClient()
	if err != nil {
		return nil, err
	}
	st, err := cli.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if st.Kind != types.KindCollection {
		return nil, fmt.Errorf("object %s is a %s, not a collection", name, st.Kind)
	}
	return cli.Collection(name), nil
}

// Stop terminates the daemon: SIGTERM first, kill after a grace period.
// All proxies minted from this manager become invalid.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cmd := m.cmd
	cfgPath := m.cfgPath
	waitErrCh := m.waitErrCh
	m.cmd = nil
	m.stopped = true
	m.mu.Unlock()
	if cfgPath != "" {
		defer os.Remove(cfgPath)
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	// The watcher goroutine started in Start owns cmd.Wait; drain its result
	// rather than waiting on the process a second time.
	select {
	case <-waitErrCh:
		// exited gracefully
	case <-time.After(stopGracePeriod):
		_ = cmd.Process.Kill()
		<-waitErrCh
	}
	return nil
}

func (m *Manager) readyClient() (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.cli == nil {
		return nil, client.ErrConnectionLost(errors.New("manager not started"))
	}
	if m.stopped {
		return nil, client.ErrConnectionLost(errors.New("manager stopped"))
	}
	return m.cli, nil
}

func (m *Manager) pickPort() (int, error) {
	if m.cfg.PortStart > 0 && m.cfg.PortEnd >= m.cfg.PortStart {
		return pickPortInRange(m.cfg.Host, m.cfg.PortStart, m.cfg.PortEnd)
	}
	return pickFreePort(m.cfg.Host)
}

// writeDaemonConfig renders the registered specs into a YAML config the
// daemon reads at boot. The file lives in a private temp dir.
func (m *Manager) writeDaemonConfig(addr string, specs []types.ObjectSpec) (string, error) {
	cfg := config.Config{
		Addr:          addr,
		DefaultObject: m.cfg.DefaultObject,
		Objects:       specs,
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp("", "inferd-manager-*")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "inferd.yaml")
	if err := fsutil.WriteFileAtomic(path, b, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// isHealthy checks if the daemon at baseURL answers /healthz.
func (m *Manager) isHealthy(baseURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (m *Manager) killLocked() {
	m.mu.Lock()
	cmd := m.cmd
	m.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
