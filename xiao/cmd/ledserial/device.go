package main

import (
	"fmt"
	"machine"
	"sync"

	"libdb.so/ringglow/button"
	"libdb.so/ringglow/ledserial"
)

// Device stores the current state of the device.
type Device struct {
	serial     serialPort
	outputs    []output
	indicators indicators
	status     *statusLED

	// sendMu serializes packets sent by the packet loop and the button
	// poller.
	sendMu sync.Mutex

	numChannels uint16
}

// NewDevice creates a new device driving the given outputs.
func NewDevice(serial machine.Serialer, outputs []output, ind indicators, status *statusLED) *Device {
	return &Device{
		serial:     serialPort{serial},
		outputs:    outputs,
		indicators: ind,
		status:     status,
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}

		// Rejected packets are acknowledged too, so that the host carries on
		// with its next frame.
		d.sendPacket(ledserial.AckPacket{
			IncomingPacketType: p.Type(),
		})
	}
}

// PollButtons polls the buttons forever and reports their events to the
// host.
func (d *Device) PollButtons(buttons []*button.Button) {
	for {
		button.PollAll(buttons, func(ev button.Event) {
			d.sendPacket(ledserial.ButtonPacket{
				Button:     uint8(ev.Button),
				Event:      uint8(ev.Kind),
				DurationMs: uint32(ev.Duration.Milliseconds()),
			})
		})
	}
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) readPacket() (ledserial.IncomingPacket, error) {
	d.status.show(statusWaiting)

	p, err := ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
		NumChannels: d.numChannels,
	})

	d.status.off()
	return p, err
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumChannels < 1 || int(p.NumChannels) > len(d.outputs) {
			return fmt.Errorf("invalid number of channels: %d (have %d)", p.NumChannels, len(d.outputs))
		}
		d.numChannels = p.NumChannels
		d.clear()
		d.log(fmt.Sprintf("initialized %d channels", p.NumChannels))

	case ledserial.ClearPacket:
		d.clear()

	case ledserial.SetPacket:
		for i, duty := range p.Duty {
			d.outputs[i].set(duty)
		}

	case ledserial.IndicatorPacket:
		d.indicators.set(p.Lights)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return nil
}

func (d *Device) clear() {
	for _, o := range d.outputs {
		o.set(0)
	}
	d.indicators.set(0)
}
