//go:build linux

package i2c

import (
	"os"
	"strings"
	"testing"
	"unsafe"
)

func openNull(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile /dev/null: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return &Bus{f: f, path: "/dev/null"}
}

func TestMsgLayout(t *testing.T) {
	// struct i2c_msg on 64-bit: three __u16, padding, pointer.
	if unsafe.Sizeof(uintptr(0)) == 8 && unsafe.Sizeof(i2cMsg{}) != 16 {
		t.Fatalf("sizeof(i2cMsg)=%d want 16", unsafe.Sizeof(i2cMsg{}))
	}
}

func TestOpen_RejectsNonAdapter(t *testing.T) {
	if _, err := Open("/dev/null"); err == nil {
		t.Fatalf("expected /dev/null to fail the functionality query")
	}
	if _, err := Open("/nonexistent/i2c-9"); err == nil {
		t.Fatalf("expected error for missing adapter")
	}
}

func TestDevTransfer_InvalidAddr(t *testing.T) {
	b := openNull(t)
	for _, addr := range []uint16{0, 0x80} {
		err := b.Dev(addr).Write([]byte{0x00})
		if err == nil || !strings.Contains(err.Error(), "invalid i2c addr") {
			t.Fatalf("addr=0x%X err=%v want invalid i2c addr", addr, err)
		}
	}
}

func TestDevTransfer_EmptyIsNoop(t *testing.T) {
	if err := openNull(t).Dev(0x50).WriteRead(nil, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestDevTransfer_TooLong(t *testing.T) {
	err := openNull(t).Dev(0x50).Write(make([]byte, maxMsgBytes+1))
	if err == nil {
		t.Fatalf("expected length error")
	}
}

func TestDevTransfer_ClosedBus(t *testing.T) {
	b := openNull(t)
	d := b.Dev(0x50)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Write([]byte{0}); err == nil {
		t.Fatalf("expected error on closed bus")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNilBusDev(t *testing.T) {
	var b *Bus
	if b.Dev(0x50) != nil {
		t.Fatalf("expected nil dev")
	}
}
