package ringglow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"libdb.so/ringglow/button"
	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/gpio"
	"libdb.so/ringglow/internal/ring"
	"libdb.so/ringglow/internal/settings"
)

// gpioDaemon drives the ring directly from the Raspberry Pi's PWM pins and
// reads the buttons from its GPIO pins.
type gpioDaemon struct {
	*Daemon
	store *settings.Store
}

func (d *gpioDaemon) Run(ctx context.Context) error {
	cfg := d.cfg.GPIO

	driver, err := gpio.Open(cfg.Pins, cfg.Frequency)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			d.logger.Warn("failed to close GPIO", "error", err)
		}
	}()

	engine, err := d.newEngine(driver.Channels(), driver, d.store)
	if err != nil {
		return err
	}

	var buttons []*button.Button
	if cfg.Buttons != nil {
		buttonCfg := button.Config{
			HoldTimeout: time.Duration(cfg.Hold),
			ActiveLow:   cfg.ActiveLow,
		}
		pins := cfg.Buttons.Map()
		for _, id := range []button.ID{button.Select, button.Up, button.Down} {
			buttons = append(buttons, driver.Button(id, pins[id], buttonCfg))
		}
	}

	var indicator control.Indicator
	if cfg.Indicators != nil {
		indicator = driver.Indicators(cfg.Indicators.List())
	}

	events := make(chan button.Event)

	errg, ctx := errgroup.WithContext(ctx)
	if len(buttons) > 0 {
		errg.Go(func() error {
			return pollButtons(ctx, buttons, events)
		})
	}
	errg.Go(func() error {
		return d.mainLoop(ctx, engine, indicator, events)
	})

	return errg.Wait()
}

func (d *gpioDaemon) mainLoop(ctx context.Context, engine *ring.Engine, indicator control.Indicator, events <-chan button.Event) error {
	dispatcher := control.NewDispatcher(engine, d.logger.With("component", "control"))
	if indicator != nil {
		dispatcher.SetIndicator(indicator)
		defer indicator.ShowMode(dispatcher.Mode(), false)
	}

	frameTicker := time.NewTicker(d.frameInterval())
	defer frameTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("switching the ring off")
			engine.Shutdown()
			return ctx.Err()

		case ev := <-events:
			dispatcher.Handle(ev)

		case <-frameTicker.C:
			engine.Poll()
		}
	}
}

// pollButtons polls the buttons until the context is canceled. Every poll
// blocks for the settle time of each button.
func pollButtons(ctx context.Context, buttons []*button.Button, dst chan<- button.Event) error {
	for ctx.Err() == nil {
		button.PollAll(buttons, func(ev button.Event) {
			select {
			case <-ctx.Done():
			case dst <- ev:
			}
		})
	}
	return ctx.Err()
}
