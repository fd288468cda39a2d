package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

const engineCfg = `{"inbounds":[],"outbounds":[],"route":{}}`

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func buildBinary(t *testing.T, pkg, name string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, pkg)
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, string(out))
	}
	return binPath
}

type serverProc struct {
	cmd  *exec.Cmd
	addr string
	base string // http base URL, e.g. http://127.0.0.1:18080
}

func startServer(t *testing.T, bin string, extra ...string) *serverProc {
	t.Helper()
	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	base := "http://" + addr
	args := append([]string{"--addr", addr, "--log-format", "json"}, extra...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return &serverProc{cmd: cmd, addr: addr, base: base}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t, "./cmd/hy2d", "hy2d")
	sp := startServer(t, bin, "--engine", "skeleton")

	resp, body := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz initial %d %s", resp.StatusCode, body)
	}

	resp, body = postJSON(t, sp.base+"/v1/start", []byte(engineCfg))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/start %d %s", resp.StatusCode, body)
	}
	resp, body = postJSON(t, sp.base+"/v1/start", []byte(engineCfg))
	if resp.StatusCode != http.StatusConflict || !strings.Contains(string(body), "already running") {
		t.Fatalf("second start %d %s", resp.StatusCode, body)
	}

	resp, _ = get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz after start %d", resp.StatusCode)
	}

	resp, body = get(t, sp.base+"/status")
	var st struct {
		State   string `json:"state"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("/status json: %v body=%s", err, body)
	}
	if st.State != "running" || !strings.HasPrefix(st.Version, "HY2-Core") {
		t.Fatalf("/status %+v", st)
	}

	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("hy2core_lifecycle_operations_total")) {
		t.Fatalf("/metrics missing lifecycle counter")
	}

	resp, _ = postJSON(t, sp.base+"/v1/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/stop %d", resp.StatusCode)
	}
}

func TestBlackbox_CtlAgainstDaemon(t *testing.T) {
	daemon := buildBinary(t, "./cmd/hy2d", "hy2d")
	ctl := buildBinary(t, "./cmd/hy2ctl", "hy2ctl")
	sp := startServer(t, daemon, "--engine", "skeleton")

	cfgPath := filepath.Join(t.TempDir(), "engine.json")
	if err := os.WriteFile(cfgPath, []byte(engineCfg), 0o600); err != nil {
		t.Fatal(err)
	}
	run := func(args ...string) (string, error) {
		cmd := exec.Command(ctl, append([]string{"--addr", sp.addr}, args...)...)
		out, err := cmd.CombinedOutput()
		return string(out), err
	}

	if out, err := run("start", cfgPath); err != nil || strings.TrimSpace(out) != "running" {
		t.Fatalf("hy2ctl start: %v %s", err, out)
	}
	if out, err := run("start", cfgPath); err == nil || !strings.Contains(out, "already running") {
		t.Fatalf("hy2ctl second start: %v %s", err, out)
	}
	if out, err := run("-o", "yaml", "health"); err != nil || !strings.Contains(out, "running: true") {
		t.Fatalf("hy2ctl health: %v %s", err, out)
	}
	if out, err := run("stop"); err != nil || strings.TrimSpace(out) != "stopped" {
		t.Fatalf("hy2ctl stop: %v %s", err, out)
	}
}

func TestBlackbox_GracefulShutdownStopsEngine(t *testing.T) {
	bin := buildBinary(t, "./cmd/hy2d", "hy2d")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engine.json")
	if err := os.WriteFile(cfgPath, []byte(engineCfg), 0o600); err != nil {
		t.Fatal(err)
	}
	sp := startServer(t, bin, "--engine", "skeleton", "--engine-config", cfgPath, "--auto-start")

	resp, _ := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("auto-start did not run the engine: %d", resp.StatusCode)
	}

	if err := sp.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- sp.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("daemon exit: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("daemon did not exit after SIGTERM")
	}
}
