package ringglow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ringglow/button"
	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/ring"
	"libdb.so/ringglow/internal/settings"
	"libdb.so/ringglow/ledserial"
)

// ackTimeout is how long to wait for an ack before assuming the controller
// lost the packet.
const ackTimeout = time.Second

// serialDaemon drives a ring controller over a serial port. The controller
// acknowledges every packet; a new frame is only sent once the previous
// packet was acknowledged.
type serialDaemon struct {
	*Daemon
	store *settings.Store
	port  serial.Port

	startDelay time.Duration
	newTicker  func(time.Duration) (<-chan time.Time, func())
	now        func() time.Time
}

func newSerialDaemon(d *Daemon, store *settings.Store) *serialDaemon {
	return &serialDaemon{
		Daemon:     d,
		store:      store,
		startDelay: 100 * time.Millisecond,
		newTicker: func(interval time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(interval)
			return t.C, t.Stop
		},
		now: time.Now,
	}
}

func (d *serialDaemon) Run(ctx context.Context) error {
	port, err := serial.Open(d.cfg.Serial.Device, &serial.Mode{
		BaudRate: d.cfg.Serial.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	defer port.Close()

	d.port = port
	return d.run(ctx)
}

// run talks to the controller on d.port until the context is canceled.
func (d *serialDaemon) run(ctx context.Context) error {
	port := d.port

	// The port stays open until the main loop has switched the ring off.
	loopDone := make(chan struct{})

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-loopDone
		d.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return nil
	})

	outPackets := make(chan ledserial.OutgoingPacket)
	errg.Go(func() error {
		defer close(loopDone)
		return d.mainLoop(ctx, outPackets)
	})
	errg.Go(func() error {
		return d.readPackets(ctx, outPackets, loopDone)
	})

	return errg.Wait()
}

func (d *serialDaemon) mainLoop(ctx context.Context, packets <-chan ledserial.OutgoingPacket) error {
	d.logger.Debug("waiting for the read loop to start...", "delay", d.startDelay)
	time.Sleep(d.startDelay)

	d.logger.Debug("sending initialize packet")
	if !d.writePacket(ledserial.InitializePacket{
		NumChannels: uint16(d.cfg.Serial.Channels),
	}) {
		return errors.New("failed to initialize controller")
	}

	frame := newFrameBuffer(d.cfg.Serial.Channels)

	engine, err := d.newEngine(frame.Channels(), frame, d.store)
	if err != nil {
		return err
	}

	lights := &indicatorLights{}

	dispatcher := control.NewDispatcher(engine, d.logger.With("component", "control"))
	dispatcher.SetIndicator(lights)

	ticks, stopTicker := d.newTicker(d.frameInterval())
	defer stopTicker()

	// acked is false while a packet is in flight.
	var acked bool
	sentAt := d.now()

	for {
		select {
		case <-ctx.Done():
			d.switchOff(engine)
			return ctx.Err()

		case p := <-packets:
			d.logger.Debug("handling packet", "type", p.Type())

			switch p := p.(type) {
			case ledserial.AckPacket:
				d.logger.Debug(
					"received ack packet from controller",
					"acked_for", p.IncomingPacketType)
				acked = true

			case ledserial.ButtonPacket:
				dispatcher.Handle(button.Event{
					Button:   button.ID(p.Button),
					Kind:     button.Kind(p.Event),
					Duration: time.Duration(p.DurationMs) * time.Millisecond,
				})

			case ledserial.ErrorPacket:
				// Rejected packets are acked anyway. Unreadable ones are
				// covered by ackTimeout.
				d.logger.Warn(
					"received error packet from controller",
					"message", p.Message)

			case ledserial.PanicPacket:
				d.logger.Error("controller unrecoverably panicked")
				d.switchOff(engine)
				return errors.New("controller panicked")

			case ledserial.LogPacket:
				d.logger.Info(
					"received log packet from controller",
					"message", p.Message)

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}

		case <-ticks:
			engine.Poll()

			if !acked && d.now().Sub(sentAt) > ackTimeout {
				d.logger.Warn(
					"controller did not acknowledge packet, sending next frame",
					"timeout", ackTimeout)
				acked = true
			}
		}

		if !acked {
			continue
		}

		// Wait for an ack before sending the next packet. Frames drawn in the
		// meantime replace each other. The indicators go first.
		if mask, ok := lights.Take(); ok {
			acked = !d.writePacket(ledserial.IndicatorPacket{Lights: mask})
			sentAt = d.now()
		} else if duty, ok := frame.Take(); ok {
			acked = !d.writePacket(ledserial.SetPacket{Duty: duty})
			sentAt = d.now()
		}
	}
}

// switchOff shuts the engine down and clears the controller. The controller
// turns the indicators off with the ring.
func (d *serialDaemon) switchOff(engine *ring.Engine) {
	engine.Shutdown()
	d.logger.Debug("switching the ring off")
	d.writePacket(ledserial.ClearPacket{})
}

// readPackets reads packets from the controller until the context is canceled
// or the port is closed after loopDone.
func (d *serialDaemon) readPackets(ctx context.Context, dst chan<- ledserial.OutgoingPacket, loopDone <-chan struct{}) error {
	if err := d.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return errors.Wrap(err, "failed to reset read timeout")
	}

	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(d.port)
		if err != nil {
			select {
			case <-loopDone:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case dst <- p:
			// ok
		}
	}

	return ctx.Err()
}

func (d *serialDaemon) writePacket(p ledserial.IncomingPacket) bool {
	d.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := ledserial.WriteIncomingPacket(d.port, p); err != nil {
		d.logger.Warn(
			"failed to write packet",
			"packet", p.Type(),
			"error", err)
		return false
	}

	return true
}
