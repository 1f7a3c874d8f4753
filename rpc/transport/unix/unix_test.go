package unix

import (
	"github.com/ValentinKolb/dInfer/rpc/common"
	"os"
	"path/filepath"
	"testing"
)

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dinfer.sock")
	config := common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: path}}

	first, err := serverConnector{}.Listen(config)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	// leave the socket file behind like a crashed server
	first.(interface{ SetUnlinkOnClose(bool) }).SetUnlinkOnClose(false)
	first.Close()

	second, err := serverConnector{}.Listen(config)
	if err != nil {
		t.Fatalf("Listen on stale socket failed: %v", err)
	}
	second.Close()
}

func TestListenKeepsRegularFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := (serverConnector{}).Listen(common.ServerConfig{Transport: common.ServerTransportConfig{Endpoint: path}}); err == nil {
		t.Fatalf("Expected error when the endpoint is a regular file")
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "keep me" {
		t.Errorf("regular file was modified: %q, %v", data, err)
	}
}
