package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/abrezinsky/pairsync/internal/config"
	"github.com/abrezinsky/pairsync/internal/handlers"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

func createTestTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layout.html": &fstest.MapFile{Data: []byte(`{{define "layout"}}<html><body>{{template "content" .}}</body></html>{{end}}`)},
		"index.html":  &fstest.MapFile{Data: []byte(`{{define "content"}}<h1>Index Page</h1>{{end}}`)},
		"form.html":   &fstest.MapFile{Data: []byte(`{{define "content"}}<h1>{{.Title}}</h1>{{range .Controls}}{{.}}{{end}}{{end}}`)},
	}
}

func testConfig() config.Config {
	return config.Config{
		Port:           8082,
		APIBaseURL:     "http://localhost:8000",
		StaleResponses: "discard",
		RequestTimeout: time.Second,
		PublicURL:      "http://forms.test",
	}
}

func createTestApp(t *testing.T) *App {
	t.Helper()
	fixtures := handlers.Fixtures{Tournaments: tournamentapi.DefaultMockTournaments()}
	app, err := New(logger.Discard(), testConfig(), tournamentapi.NewMockClient(), fixtures, createTestTemplatesFS(), fstest.MapFS{})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func TestNew_InitializesApp(t *testing.T) {
	app := createTestApp(t)

	if app.handlers == nil {
		t.Error("expected handlers to be initialized")
	}
	if app.hub == nil {
		t.Error("expected hub to be initialized")
	}
	if app.PublicURL() != "http://forms.test" {
		t.Errorf("expected configured public URL, got %q", app.PublicURL())
	}
}

func TestNew_FailsWithInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StaleResponses = "sometimes"

	_, err := New(logger.Discard(), cfg, tournamentapi.NewMockClient(), handlers.Fixtures{}, createTestTemplatesFS(), fstest.MapFS{})
	if err == nil {
		t.Error("expected error for invalid stale policy")
	}
}

func TestNew_FailsWithMissingTemplates(t *testing.T) {
	_, err := New(logger.Discard(), testConfig(), tournamentapi.NewMockClient(), handlers.Fixtures{}, fstest.MapFS{}, fstest.MapFS{})
	if err == nil {
		t.Error("expected error for missing templates")
	}
}

func TestApp_Router_ServesRequests(t *testing.T) {
	app := createTestApp(t)

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "Index Page"},
		{"/forms/match", http.StatusOK, `id="id_tournament"`},
		{"/forms/nope", http.StatusNotFound, "NOT_FOUND"},
		{"/healthz", http.StatusOK, `"sessions":0`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			rec := httptest.NewRecorder()
			app.Router().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %q", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestApp_Run_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	cfg.Port = listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	app, err := New(logger.Discard(), cfg, tournamentapi.NewMockClient(), handlers.Fixtures{}, createTestTemplatesFS(), fstest.MapFS{})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// mockInterface implements networkInterface for testing
type mockInterface struct {
	flags net.Flags
	addrs []net.Addr
	err   error
}

func (m mockInterface) Flags() net.Flags {
	return m.flags
}

func (m mockInterface) Addrs() ([]net.Addr, error) {
	return m.addrs, m.err
}

// mockNetworkProvider implements networkProvider for testing
type mockNetworkProvider struct {
	interfaces []networkInterface
	err        error
}

func (m mockNetworkProvider) Interfaces() ([]networkInterface, error) {
	return m.interfaces, m.err
}

func ipNet(s string) net.Addr {
	return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
}

func TestPreferredIP(t *testing.T) {
	tests := []struct {
		name     string
		provider mockNetworkProvider
		expected string
	}{
		{"provider error", mockNetworkProvider{err: net.ErrClosed}, "localhost"},
		{"addrs error", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, err: net.ErrClosed},
		}}, "localhost"},
		{"interface down", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{addrs: []net.Addr{ipNet("192.168.1.5")}},
		}}, "localhost"},
		{"loopback interface", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp | net.FlagLoopback, addrs: []net.Addr{ipNet("127.0.0.1")}},
		}}, "localhost"},
		{"ip addr type", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("192.168.1.100")}}},
		}}, "192.168.1.100"},
		{"private preferred over public", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8")}},
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("172.20.0.4")}},
		}}, "172.20.0.4"},
		{"public fallback", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8")}},
		}}, "8.8.8.8"},
		{"ipv6 skipped", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{&net.IPNet{IP: net.ParseIP("fd00::1"), Mask: net.CIDRMask(64, 128)}}},
		}}, "localhost"},
		{"172 outside private range", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("172.32.0.1"), ipNet("10.0.0.7")}},
		}}, "10.0.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preferredIP(tt.provider); got != tt.expected {
				t.Errorf("preferredIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPreferredIP_RealNetwork(t *testing.T) {
	ip := preferredIP(realNetworkProvider{})
	if ip == "" {
		t.Error("IP should not be empty")
	}
	if ip != "localhost" && net.ParseIP(ip).To4() == nil {
		t.Errorf("expected IPv4 address, got: %s", ip)
	}
}
