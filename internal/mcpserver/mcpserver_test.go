package mcpserver

import (
	"testing"

	"github.com/leshchenko1979/telegram-mcp-go/internal/config"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
	"github.com/leshchenko1979/telegram-mcp-go/internal/rpcbridge"
	"github.com/leshchenko1979/telegram-mcp-go/internal/session"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	sessions := session.New(&platformtest.FakeDialer{}, session.Config{})
	t.Cleanup(func() { sessions.Close() })
	return New(cfg, sessions, rpcbridge.NewRegistry())
}

func TestRequiresBearerToken(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.TransportConfig
		want bool
	}{
		{"stdio default", config.TransportConfig{Mode: "stdio", AuthEnabled: true}, false},
		{"stdio empty mode", config.TransportConfig{Mode: "", AuthEnabled: true}, false},
		{"http auth enabled", config.TransportConfig{Mode: "http", AuthEnabled: true}, true},
		{"http auth disabled (test-mode)", config.TransportConfig{Mode: "http", AuthEnabled: false}, false},
		{"streamable-http auth enabled", config.TransportConfig{Mode: "streamable-http", AuthEnabled: true}, true},
		{"HTTP case-insensitive", config.TransportConfig{Mode: "HTTP", AuthEnabled: true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Transport: tc.cfg}
			s := newTestServer(t, cfg)
			if got := s.requiresBearerToken(); got != tc.want {
				t.Errorf("requiresBearerToken() = %v, want %v", got, tc.want)
			}
		})
	}
}
