package main

import "machine"

// indicators are the onboard user LEDs of the XIAO RP2040, lit by pulling
// them low. Bit i of an IndicatorPacket drives indicators[i].
type indicators []machine.Pin

var indicatorPins = indicators{
	machine.GPIO17, // red: pattern
	machine.GPIO16, // green: speed
	machine.GPIO25, // blue: brightness
}

func (ind indicators) configure() {
	for _, pin := range ind {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	ind.set(0)
}

func (ind indicators) set(lights uint8) {
	for i, pin := range ind {
		pin.Set(lights&(1<<i) == 0)
	}
}
