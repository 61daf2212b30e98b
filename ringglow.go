// Package ringglow is the host daemon of a ring of single-intensity lights.
// It animates the ring and drives it through a serial controller or the
// Raspberry Pi's PWM pins.
package ringglow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ringglow/internal/nonvol"
	"libdb.so/ringglow/internal/ring"
	"libdb.so/ringglow/internal/settings"
)

// Daemon is the main ringglow daemon.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
}

// NewDaemon creates a new ringglow daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Run starts the daemon. It blocks until the given context is canceled, at
// which point the ring is switched off.
func (d *Daemon) Run(ctx context.Context) error {
	medium, err := nonvol.OpenFile(d.cfg.Settings)
	if err != nil {
		return errors.Wrap(err, "failed to open settings image")
	}
	defer medium.Close()

	store := settings.NewStore(
		medium, d.cfg.SettingsAddress, ring.DefaultSettings(),
		d.logger.With("component", "settings"))

	switch d.cfg.Backend {
	case SerialBackend:
		return newSerialDaemon(d, store).Run(ctx)
	case GPIOBackend:
		return (&gpioDaemon{Daemon: d, store: store}).Run(ctx)
	default:
		return fmt.Errorf("unknown backend %q", d.cfg.Backend)
	}
}

func (d *Daemon) newEngine(channels []ring.Channel, driver ring.Driver, store *settings.Store) (*ring.Engine, error) {
	engine, err := ring.NewEngine(channels, ring.Options{
		Driver: driver,
		Store:  store,
		Logger: d.logger.With("component", "engine"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ring engine")
	}

	s := engine.Settings()
	d.logger.Info(
		"ring started",
		"channels", len(channels),
		"pattern", ring.Pattern(s.Pattern),
		"brightness", s.Brightness,
		"speed", s.Speed)

	return engine, nil
}

func (d *Daemon) frameInterval() time.Duration {
	return time.Second / time.Duration(d.cfg.Rate)
}
