// Command ledserial is the ring controller firmware for the Seeed XIAO
// RP2040. It drives the ring channels with PWM and reports button events to
// the host over USB serial.
package main

import (
	"machine"

	"libdb.so/ringglow/button"
)

// pwmFrequency is the PWM frequency of every channel in Hz.
const pwmFrequency = 1000

// outputPins are the ring channels in ring order. Each pair shares a PWM
// slice.
var outputPins = []outputPin{
	{machine.D4, machine.PWM3},  // GPIO6
	{machine.D5, machine.PWM3},  // GPIO7
	{machine.D6, machine.PWM0},  // GPIO0
	{machine.D7, machine.PWM0},  // GPIO1
	{machine.D8, machine.PWM1},  // GPIO2
	{machine.D10, machine.PWM1}, // GPIO3
}

// buttonPins are pulled up and shorted to ground when pressed.
var buttonPins = map[button.ID]machine.Pin{
	button.Select: machine.D0,
	button.Up:     machine.D1,
	button.Down:   machine.D2,
}

func main() {
	status := newStatusLED()

	outputs, err := configureOutputs(outputPins, pwmFrequency)
	if err != nil {
		println("failed to configure outputs:", err.Error())
		status.show(statusFailed)
		select {}
	}

	var buttons []*button.Button
	for _, id := range []button.ID{button.Select, button.Up, button.Down} {
		pin := buttonPins[id]
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		buttons = append(buttons, button.New(id, pin, button.Config{ActiveLow: true}))
	}

	indicatorPins.configure()

	d := NewDevice(machine.Serial, outputs, indicatorPins, status)
	go d.PollButtons(buttons)
	d.Run()
}
