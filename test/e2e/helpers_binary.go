//go:build e2e

package e2e

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// process manages a running waypoint binary.
type process struct {
	cmd     *exec.Cmd
	address string
	logFile string
}

// startWaypoint launches the waypoint binary with args and extra environment.
// Configuration comes entirely from environment variables.
func startWaypoint(t *testing.T, name string, args []string, env ...string) *process {
	t.Helper()

	if waypointBin == "" {
		t.Skip("waypoint binary not available (set WAYPOINT_BIN or add to PATH)")
	}

	dataDir := t.TempDir()
	logFile := filepath.Join(dataDir, name+".log")

	cmd := exec.Command(waypointBin, args...)
	cmd.Env = append(os.Environ(),
		"WAYPOINT_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"WAYPOINT_ENV_FILE="+filepath.Join(dataDir, "nonexistent.env"),
		"WAYPOINT_EMULATOR_DB="+filepath.Join(dataDir, "emulator.db"),
		"WAYPOINT_REMOTE_TOKEN_ENV=WAYPOINT_REMOTE_TOKEN",
	)
	cmd.Env = append(cmd.Env, env...)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start %s: %v", name, err)
	}

	p := &process{cmd: cmd, logFile: logFile}
	t.Cleanup(func() {
		p.stop()
		lf.Close()
	})
	return p
}

// startEmulatorProcess runs `waypoint emulate` on a free port.
func startEmulatorProcess(t *testing.T, stream bool) *process {
	t.Helper()
	port := freePort(t)
	args := []string{"emulate", "--port", fmt.Sprint(port)}
	if stream {
		args = append(args, "--stream")
	}
	p := startWaypoint(t, "emulator", args, "WAYPOINT_REMOTE_TOKEN="+testToken)
	p.address = fmt.Sprintf("127.0.0.1:%d", port)

	if err := p.waitListening(10 * time.Second); err != nil {
		t.Fatalf("emulator not listening: %v\n%s", err, p.logs())
	}
	return p
}

// startServerProcess runs the API server against the emulator at remote.
func startServerProcess(t *testing.T, remote *process, token string) *process {
	t.Helper()
	port := freePort(t)
	p := startWaypoint(t, "server", nil,
		fmt.Sprintf("WAYPOINT_PORT=%d", port),
		"WAYPOINT_REMOTE_URL="+remote.baseURL()+"/mcp",
		"WAYPOINT_REMOTE_TOKEN="+token,
	)
	p.address = fmt.Sprintf("127.0.0.1:%d", port)

	if err := p.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("server not healthy: %v\n%s", err, p.logs())
	}
	return p
}

func (p *process) stop() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(os.Interrupt)
		_ = p.cmd.Wait()
	}
}

func (p *process) baseURL() string {
	return fmt.Sprintf("http://%s", p.address)
}

func (p *process) logs() string {
	data, _ := os.ReadFile(p.logFile)
	return strings.TrimSpace(string(data))
}

func (p *process) waitListening(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", p.address, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("%s not listening after %s", p.address, timeout)
}

func (p *process) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("%s/api/v1/health", p.baseURL())

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy after %s", timeout)
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
