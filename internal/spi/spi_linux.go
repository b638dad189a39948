//go:build linux

package spi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Minimal Linux spidev implementation backed by /dev/spidevB.C.
//
// Each Tx is a single full-duplex SPI_IOC_MESSAGE(1) transfer with chip
// select held for the whole message.

const (
	spiIocWrMode        = 0x40016b01
	spiIocWrBitsPerWord = 0x40016b03
	spiIocWrMaxSpeedHz  = 0x40046b04
	spiIocMessage1      = 0x40206b00
)

// transfer mirrors struct spi_ioc_transfer (32 bytes).
type transfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// Bus is an opened spidev device.
//
// Not safe for concurrent transfers.
type Bus struct {
	f    *os.File
	path string
	cfg  Config
}

func Open(path string, cfg Config) (*Bus, error) {
	path = filepath.Clean(path)
	cfg = cfg.withDefaults()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	b := &Bus{f: f, path: path, cfg: cfg}

	mode := cfg.Mode
	if err := b.ioctl(spiIocWrMode, unsafe.Pointer(&mode)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("spi: set mode %d on %s: %w", mode, path, err)
	}
	bits := cfg.BitsPerWord
	if err := b.ioctl(spiIocWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("spi: set bits per word on %s: %w", path, err)
	}
	speed := cfg.SpeedHz
	if err := b.ioctl(spiIocWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("spi: set speed %d on %s: %w", speed, path, err)
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

// Tx clocks max(len(w), len(r)) bytes. Missing tx bytes are sent as zero and
// surplus rx bytes are discarded by the kernel.
func (b *Bus) Tx(w, r []byte) error {
	if b == nil || b.f == nil {
		return errors.New("spi bus is nil")
	}
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	if n == 0 {
		return nil
	}
	if len(w) > 0 && len(r) > 0 && len(w) != len(r) {
		return fmt.Errorf("spi: tx len %d != rx len %d", len(w), len(r))
	}

	tr := transfer{
		length:      uint32(n),
		speedHz:     b.cfg.SpeedHz,
		bitsPerWord: b.cfg.BitsPerWord,
	}
	if len(w) > 0 {
		tr.txBuf = uint64(uintptr(unsafe.Pointer(&w[0])))
	}
	if len(r) > 0 {
		tr.rxBuf = uint64(uintptr(unsafe.Pointer(&r[0])))
	}
	err := b.ioctl(spiIocMessage1, unsafe.Pointer(&tr))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	return err
}

func (b *Bus) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
