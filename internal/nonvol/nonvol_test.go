package nonvol

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStartsErased(t *testing.T) {
	m := NewMemory(8)

	buf := make([]byte, 8)
	n, err := m.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, buf)
}

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory(8)

	_, err := m.WriteAt([]byte{1, 2, 3}, 2)
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = m.ReadAt(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 1, 2, 3, 0xFF}, buf)

	m.Erase()
	_, err = m.ReadAt(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, buf)
}

func TestMemoryBounds(t *testing.T) {
	m := NewMemory(4)

	_, err := m.WriteAt([]byte{1, 2}, 3)
	assert.Error(t, err)

	buf := make([]byte, 2)
	n, err := m.ReadAt(buf, 3)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = m.ReadAt(buf, 10)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.img")

	f, err := OpenFile(path)
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF, "fresh image should read short")

	_, err = f.WriteAt([]byte{7, 8, 9}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9}, buf)
}
