// Package nonvol provides byte-addressed non-volatile media for small
// fixed-size records, emulating an EEPROM.
package nonvol

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Erased is the value of every byte of a freshly erased medium.
const Erased = 0xFF

// Medium is a byte-addressed storage medium. Reads and writes address the
// medium the same way io.ReaderAt and io.WriterAt do.
type Medium interface {
	io.ReaderAt
	io.WriterAt
}

// Memory is an in-memory medium of a fixed size. It starts erased.
type Memory struct {
	mu  sync.Mutex
	buf []byte
}

var _ Medium = (*Memory)(nil)

// NewMemory creates a new erased medium of the given size in bytes.
func NewMemory(size int) *Memory {
	m := &Memory{buf: make([]byte, size)}
	m.Erase()
	return m
}

// Erase resets every byte of the medium to Erased.
func (m *Memory) Erase() {
	m.mu.Lock()
	for i := range m.buf {
		m.buf[i] = Erased
	}
	m.mu.Unlock()
}

// ReadAt implements io.ReaderAt.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}

	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes past the end of the medium fail
// without writing anything.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, errors.Errorf("write of %d bytes at %d out of range", len(p), off)
	}

	return copy(m.buf[off:], p), nil
}

// File is a medium backed by an image file on disk. A missing or short
// file reads as erased.
type File struct {
	f *os.File
}

var _ Medium = (*File)(nil)

// OpenFile opens or creates the image file at the given path.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image file")
	}
	return &File{f: f}, nil
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt. The file is synced before returning.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	n, err := f.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	if err := f.f.Sync(); err != nil {
		return n, errors.Wrap(err, "failed to sync image file")
	}
	return n, nil
}

// Close closes the image file.
func (f *File) Close() error {
	return f.f.Close()
}
