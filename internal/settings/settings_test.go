package settings

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ringglow/internal/nonvol"
)

var testDefaults = Settings{
	Pattern:    1,
	Brightness: 18,
	Speed:      18,
}

func TestLoadErasedWritesDefaults(t *testing.T) {
	mem := nonvol.NewMemory(16)
	store := NewStore(mem, 4, testDefaults, nil)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Settings{Version: Version, Pattern: 1, Brightness: 18, Speed: 18}, s)

	buf := make([]byte, RecordSize)
	_, err = mem.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{Version, 1, 18, 18, 0}, buf)

	// The bytes before the address are untouched.
	head := make([]byte, 4)
	_, err = mem.ReadAt(head, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, head)
}

func TestLoadVersionMismatchResets(t *testing.T) {
	mem := nonvol.NewMemory(16)
	_, err := mem.WriteAt([]byte{Version + 1, 4, 3, 30, 0}, 0)
	require.NoError(t, err)

	store := NewStore(mem, 0, testDefaults, nil)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 18, s.Speed)
	assert.Equal(t, 1, s.Pattern)

	buf := make([]byte, RecordSize)
	_, err = mem.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{Version, 1, 18, 18, 0}, buf)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(nonvol.NewMemory(16), 0, testDefaults, nil)

	want := Settings{Version: Version, Pattern: 9, Brightness: 3, Speed: 60}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadKeepsUnknownPattern(t *testing.T) {
	store := NewStore(nonvol.NewMemory(16), 0, testDefaults, nil)
	require.NoError(t, store.Save(Settings{Version: Version, Pattern: 0xFF, Brightness: 5, Speed: 6}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0xFF, got.Pattern)
}

func TestLoadFreshImageFile(t *testing.T) {
	f, err := nonvol.OpenFile(filepath.Join(t.TempDir(), "ring.img"))
	require.NoError(t, err)
	defer f.Close()

	store := NewStore(f, 0, testDefaults, nil)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, store.Defaults(), s)

	s.Brightness = 2
	require.NoError(t, store.Save(s))

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, again.Brightness)
}

func TestSaveOutOfRange(t *testing.T) {
	store := NewStore(nonvol.NewMemory(2), 0, testDefaults, nil)
	assert.Error(t, store.Save(testDefaults))
}

// eofAtEnd reports io.EOF along with reads that end exactly at the end of
// the medium, as io.ReaderAt allows.
type eofAtEnd struct {
	*nonvol.Memory
	size int64
}

func (m eofAtEnd) ReadAt(p []byte, off int64) (int, error) {
	n, err := m.Memory.ReadAt(p, off)
	if err == nil && off+int64(n) == m.size {
		err = io.EOF
	}
	return n, err
}

func TestLoadRecordAtEndOfMedium(t *testing.T) {
	medium := eofAtEnd{Memory: nonvol.NewMemory(RecordSize), size: int64(RecordSize)}
	store := NewStore(medium, 0, testDefaults, nil)

	want := Settings{Version: Version, Pattern: 10, Brightness: 3, Speed: 24}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
