// Package settings persists the user-adjustable ring settings as a single
// fixed-size record on a non-volatile medium.
package settings

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/ringglow/internal/nonvol"
)

// Version is the current schema version of the record. Records with another
// version are discarded on load.
const Version = 1

// Endianness is the byte order of the record.
var Endianness = binary.LittleEndian

// Settings is the persisted settings record.
type Settings struct {
	// Version is the schema version the record was written with.
	Version int
	// Pattern is the pattern selector.
	Pattern int
	// Brightness is the global brightness level.
	Brightness int
	// Speed is the lead speed in revolutions per minute.
	Speed int
	// Invalid is non-zero when the record has never been written.
	Invalid bool
}

// record is the on-medium layout of Settings.
type record struct {
	Version    uint8
	Pattern    uint8
	Brightness uint8
	Speed      uint8
	Invalid    uint8
}

// RecordSize is the size of the record on the medium in bytes.
var RecordSize = binary.Size(record{})

func (s Settings) record() record {
	r := record{
		Version:    uint8(s.Version),
		Pattern:    uint8(s.Pattern),
		Brightness: uint8(s.Brightness),
		Speed:      uint8(s.Speed),
	}
	if s.Invalid {
		r.Invalid = nonvol.Erased
	}
	return r
}

func (r record) settings() Settings {
	return Settings{
		Version:    int(r.Version),
		Pattern:    int(r.Pattern),
		Brightness: int(r.Brightness),
		Speed:      int(r.Speed),
		Invalid:    r.Invalid != 0,
	}
}

// Store reads and writes the settings record at a fixed address. It never
// caches the record: every Load goes to the medium.
type Store struct {
	medium   nonvol.Medium
	addr     int64
	defaults Settings
	logger   *slog.Logger
}

// NewStore creates a new store for the record at addr. The defaults are
// written whenever the stored record is uninitialized or has a different
// schema version.
func NewStore(medium nonvol.Medium, addr int64, defaults Settings, logger *slog.Logger) *Store {
	defaults.Version = Version
	defaults.Invalid = false

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		medium:   medium,
		addr:     addr,
		defaults: defaults,
		logger:   logger,
	}
}

// Defaults returns the default settings of the store.
func (s *Store) Defaults() Settings {
	return s.defaults
}

// Load reads the settings record. An uninitialized record or one with a
// mismatching schema version is replaced by the defaults, which are
// persisted before returning.
func (s *Store) Load() (Settings, error) {
	buf := make([]byte, RecordSize)

	n, err := s.medium.ReadAt(buf, s.addr)
	switch {
	case err == nil:
		// ok
	case errors.Is(err, io.EOF) && n == len(buf):
		// The record ends exactly at the end of the medium.
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// A short medium has never been written to.
		for i := range buf {
			buf[i] = nonvol.Erased
		}
	default:
		return Settings{}, errors.Wrap(err, "failed to read settings")
	}

	var r record
	if err := binary.Read(bytes.NewReader(buf), Endianness, &r); err != nil {
		return Settings{}, errors.Wrap(err, "failed to decode settings")
	}

	settings := r.settings()
	if !settings.Invalid && settings.Version == Version {
		return settings, nil
	}

	s.logger.Info(
		"resetting settings to defaults",
		"invalid", settings.Invalid,
		"version", settings.Version)

	if err := s.Save(s.defaults); err != nil {
		return s.defaults, err
	}

	return s.defaults, nil
}

// Save writes the whole settings record in a single write.
func (s *Store) Save(settings Settings) error {
	var buf bytes.Buffer
	buf.Grow(RecordSize)

	if err := binary.Write(&buf, Endianness, settings.record()); err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	if _, err := s.medium.WriteAt(buf.Bytes(), s.addr); err != nil {
		return errors.Wrap(err, "failed to write settings")
	}

	return nil
}
