package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfigApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talkd.yaml")
	data := []byte("listen_addr: \":9001\"\ndb_path: /tmp/test.db\nsend_buffer: 8\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}

	want := DefaultConfig()
	want.ListenAddr = ":9001"
	want.DBPath = "/tmp/test.db"
	want.SendBuffer = 8
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigApplyFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("ApplyFile on missing file: expected error")
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("TALKD_LISTEN_ADDR", ":9002")
	t.Setenv("TALKD_MAX_LINE_BYTES", "512")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.ListenAddr != ":9002" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9002")
	}
	if cfg.MaxLineBytes != 512 {
		t.Errorf("MaxLineBytes = %d, want 512", cfg.MaxLineBytes)
	}
	// Untouched fields keep their defaults.
	if cfg.DBPath != DefaultConfig().DBPath {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
}
