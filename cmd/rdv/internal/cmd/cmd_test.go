package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/rendezvous/rdv/config"
	"github.com/TheusHen/rendezvous/rdv/directory/memory"
	"github.com/TheusHen/rendezvous/rdv/transport"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "rdv v"+Version) {
		t.Fatalf("output = %q", out)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "init", "--dir", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	file := filepath.Join(dir, config.DefaultFile)
	cfg, err := config.Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Name != config.Default().Session.Name {
		t.Fatalf("session name = %q", cfg.Session.Name)
	}

	if _, err := execute(t, "init", "--dir", dir); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
	if _, err := execute(t, "init", "--dir", dir, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "keygen")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if !strings.Contains(out, "public key:") || !strings.Contains(out, "fingerprint:") {
		t.Fatalf("output = %q", out)
	}
}

func TestServeMux(t *testing.T) {
	cfg := config.Default().Server
	handler, err := newServeMux(cfg, nil, memory.New())
	if err != nil {
		t.Fatalf("newServeMux: %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	body := `{"method":"directory.Add","params":[{"Name":"n","Entry":"e"}],"id":1}`
	resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rpc status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), `rdv_directory_rpc_total{method="directory.Add",result="success"} 1`) {
		t.Fatalf("metrics missing Add call:\n%s", data)
	}
}

func TestServeMuxWithoutMetrics(t *testing.T) {
	cfg := config.Default().Server
	cfg.Metrics = false
	handler, err := newServeMux(cfg, nil, memory.New())
	if err != nil {
		t.Fatalf("newServeMux: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInitiatorAndContributor(t *testing.T) {
	handler, err := newServeMux(config.ServerConfig{}, nil, memory.New())
	if err != nil {
		t.Fatalf("newServeMux: %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Session.PollInterval = 10 * time.Millisecond
	cfg.Session.HandshakeAttempts = 500
	cfg.Session.ExchangeAttempts = 500
	cfg.Log.Level = "error"
	file := filepath.Join(dir, config.DefaultFile)
	if err := config.Save(file, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	common := []string{"--config", file, "--directory", srv.URL, "--name", "cli.session", "--iterations", "2"}

	var (
		wg      sync.WaitGroup
		contOut string
		contErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		contOut, contErr = execute(t, append([]string{"contributor", "--reply", "Pong"}, common...)...)
	}()

	initOut, initErr := execute(t, append([]string{"initiator", "--message", "Ping"}, common...)...)
	wg.Wait()

	if initErr != nil {
		t.Fatalf("initiator: %v", initErr)
	}
	if contErr != nil {
		t.Fatalf("contributor: %v", contErr)
	}
	for i := 1; i <= 2; i++ {
		if want := fmt.Sprintf("%d: Pong %d", i, i); !strings.Contains(initOut, want) {
			t.Fatalf("initiator output %q lacks %q", initOut, want)
		}
		if want := fmt.Sprintf("%d: Ping %d", i, i); !strings.Contains(contOut, want) {
			t.Fatalf("contributor output %q lacks %q", contOut, want)
		}
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(os.TempDir(), "rdv-does-not-exist.yaml"), "version")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestServeDirectoryStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveDirectory(ctx, quietLogger(), ln, nil, http.NotFoundHandler()) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serveDirectory: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveDirectory did not return after cancel")
	}
}

func TestServeDirectoryHTTP3FailureClosesTCP(t *testing.T) {
	// Occupy a UDP port so the HTTP/3 listener cannot bind.
	busy, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	defer busy.Close()

	h3, err := transport.NewHTTP3Server(busy.LocalAddr().String(), http.NotFoundHandler())
	if err != nil {
		t.Fatalf("NewHTTP3Server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()

	done := make(chan error, 1)
	go func() { done <- serveDirectory(context.Background(), quietLogger(), ln, h3, http.NotFoundHandler()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected the HTTP/3 bind error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveDirectory did not return after the HTTP/3 listener failed")
	}
	if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		conn.Close()
		t.Fatal("TCP listener still accepting after shutdown")
	}
}
