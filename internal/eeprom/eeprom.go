// Package eeprom provides byte-addressed persistent storage for setpoints:
// a 24Cxx chip on I2C, a file image standing in for one, or plain memory.
// All of them read 0xFF when erased.
package eeprom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultSize = 256
	Erased      = 0xFF
)

var ErrAddress = errors.New("eeprom: address out of range")

// File is an EEPROM image backed by a regular file. Every Put rewrites the
// image atomically; unchanged bytes are not rewritten.
type File struct {
	path string

	mu  sync.Mutex
	img []byte
}

// Open loads the image at path, creating an erased one if it does not exist.
// A short image is padded with erased bytes; a longer one is truncated.
func Open(path string, size int) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("eeprom: path is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	img := erased(size)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		copy(img, b)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("eeprom: read image: %w", err)
	}
	return &File{path: path, img: img}, nil
}

func (f *File) Get(addr int) (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if addr < 0 || addr >= len(f.img) {
		return 0, fmt.Errorf("%w: %d", ErrAddress, addr)
	}
	return f.img[addr], nil
}

func (f *File) Put(addr int, v byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if addr < 0 || addr >= len(f.img) {
		return fmt.Errorf("%w: %d", ErrAddress, addr)
	}
	if f.img[addr] == v {
		return nil
	}
	prev := f.img[addr]
	f.img[addr] = v
	if err := f.flushLocked(); err != nil {
		f.img[addr] = prev
		return err
	}
	return nil
}

func (f *File) flushLocked() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("eeprom: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".eeprom-*")
	if err != nil {
		return fmt.Errorf("eeprom: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(f.img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("eeprom: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("eeprom: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("eeprom: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("eeprom: rename: %w", err)
	}
	return nil
}

// Memory is a volatile EEPROM image.
type Memory struct {
	mu  sync.Mutex
	img []byte
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{img: erased(size)}
}

func (m *Memory) Get(addr int) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= len(m.img) {
		return 0, fmt.Errorf("%w: %d", ErrAddress, addr)
	}
	return m.img[addr], nil
}

func (m *Memory) Put(addr int, v byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= len(m.img) {
		return fmt.Errorf("%w: %d", ErrAddress, addr)
	}
	m.img[addr] = v
	return nil
}

func erased(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = Erased
	}
	return b
}
