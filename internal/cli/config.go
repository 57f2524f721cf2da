package cli

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// ServerConfig holds the game server command configuration
type ServerConfig struct {
	Port        uint16
	Transports  string // comma separated: udp,tcp
	APIPort     int    // negative disables the status API
	StorageType string
	RedisURL    string
	DataDir     string
	Verbose     bool
}

// DefaultServerConfig returns server defaults, overridden by the environment
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        8000,
		Transports:  "udp,tcp",
		APIPort:     8080,
		StorageType: getEnvOrDefault("STORAGE_TYPE", "file"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DataDir:     getEnvOrDefault("PACMAN_DATA_DIR", "data"),
	}
}

// ClientConfig holds the game client command configuration
type ClientConfig struct {
	Server   string
	Protocol string
	APIURL   string
	Output   string
	FailHard bool
	Verbose  bool
}

// DefaultClientConfig returns client defaults, overridden by the environment
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Server:   getEnvOrDefault("PACMAN_SERVER", "127.0.0.1:8000"),
		Protocol: getEnvOrDefault("PACMAN_PROTOCOL", string(protocol.TransportUDP)),
		APIURL:   getEnvOrDefault("PACMAN_API", "http://localhost:8080"),
		Output:   "text",
	}
}

// ServerConnection resolves the configured server endpoint
func (c *ClientConfig) ServerConnection() (protocol.Connection, error) {
	t, err := protocol.ParseTransport(c.Protocol)
	if err != nil {
		return protocol.Connection{}, err
	}
	resolved, err := net.ResolveTCPAddr("tcp", c.Server)
	if err != nil {
		return protocol.Connection{}, fmt.Errorf("invalid server address %q: %w", c.Server, err)
	}
	addr := resolved.AddrPort()
	return protocol.NewConnection(t, netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())), nil
}

// parseTransports parses a comma separated transport list
func parseTransports(s string) ([]protocol.Transport, error) {
	var out []protocol.Transport
	for _, part := range strings.Split(s, ",") {
		t, err := protocol.ParseTransport(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
