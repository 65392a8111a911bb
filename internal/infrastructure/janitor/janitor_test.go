package janitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSweepOnceRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "audio-stale.mp3")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "audio-fresh.mp3")
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	j := New(dir, time.Hour, zerolog.Nop())
	removed, err := j.SweepOnce()
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file was removed")
	}
}

func TestSweepOnceMissingDirectory(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "never-created"), time.Hour, zerolog.Nop())
	removed, err := j.SweepOnce()
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestSweepOnceSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	os.Chtimes(sub, old, old)

	j := New(dir, time.Hour, zerolog.Nop())
	if _, err := j.SweepOnce(); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Error("directory should be left alone")
	}
}
