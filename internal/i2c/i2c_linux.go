//go:build linux

// Package i2c talks to devices on a Linux /dev/i2c-N adapter.
package i2c

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// From linux/i2c.h and linux/i2c-dev.h.
const (
	i2cMsgRead  = 0x0001
	i2cFuncs    = 0x0705
	i2cRdwr     = 0x0707
	i2cFuncI2C  = 0x00000001
	maxMsgBytes = 8192
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   *byte
}

type i2cRdwrIoctlData struct {
	msgs  *i2cMsg
	nmsgs uint32
}

// Bus is an opened adapter. Transfers are not serialized; callers sharing a
// Bus across goroutines must coordinate.
type Bus struct {
	f    *os.File
	path string
}

// Open opens the adapter and checks that it can do plain I2C transfers
// (SMBus-only adapters cannot combine a write and a read).
func Open(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	b := &Bus{f: f, path: path}

	var funcs uint64
	if err := b.ioctl(i2cFuncs, unsafe.Pointer(&funcs)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("i2c: %s: query functionality: %w", path, err)
	}
	if funcs&i2cFuncI2C == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("i2c: %s does not support combined transfers", path)
	}
	return b, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// Dev returns the device at a 7-bit address.
func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

func (b *Bus) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) Write(p []byte) error {
	return d.transfer(p, nil)
}

// WriteRead writes w, then reads len(r) bytes after a repeated start.
func (d *Dev) WriteRead(w, r []byte) error {
	return d.transfer(w, r)
}

func (d *Dev) transfer(w, r []byte) error {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return errors.New("i2c device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("invalid i2c addr 0x%X", d.addr)
	}
	if len(w) > maxMsgBytes || len(r) > maxMsgBytes {
		return fmt.Errorf("i2c: message longer than %d bytes", maxMsgBytes)
	}

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: d.addr, len: uint16(len(w)), buf: &w[0]}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: d.addr, flags: i2cMsgRead, len: uint16(len(r)), buf: &r[0]}
		n++
	}
	if n == 0 {
		return nil
	}

	data := i2cRdwrIoctlData{msgs: &msgs[0], nmsgs: uint32(n)}
	err := d.bus.ioctl(i2cRdwr, unsafe.Pointer(&data))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if err != nil {
		return fmt.Errorf("i2c: transfer 0x%02X: %w", d.addr, err)
	}
	return nil
}
