//go:build linux

package spi

import (
	"os"
	"testing"
)

func openNull(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile /dev/null: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return &Bus{f: f, path: "/dev/null", cfg: Config{}.withDefaults()}
}
