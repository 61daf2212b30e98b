package main

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// statusColor is a color of the onboard LED in GRB order.
type statusColor [3]uint8

var (
	statusWaiting = statusColor{0, 0, 32}  // blue: waiting for the host
	statusFailed  = statusColor{0, 255, 0} // red: cannot drive the ring
)

// statusLED is the onboard ws2812 of the XIAO RP2040. It has its own power
// pin.
// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
type statusLED struct {
	led   ws2812.Device
	power machine.Pin
}

func newStatusLED() *statusLED {
	power := machine.GPIO11
	power.Configure(machine.PinConfig{Mode: machine.PinOutput})
	power.Low()

	data := machine.GPIO12
	data.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &statusLED{
		led:   ws2812.New(data),
		power: power,
	}
}

func (s *statusLED) show(c statusColor) {
	s.power.High()
	s.led.Write(c[:])
}

func (s *statusLED) off() {
	s.power.Low()
}
