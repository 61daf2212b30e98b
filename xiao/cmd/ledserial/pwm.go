package main

import (
	"fmt"
	"machine"
)

// pwm is a PWM slice of the RP2040.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type outputPin struct {
	pin machine.Pin
	pwm pwm
}

// output is a configured PWM channel.
type output struct {
	pwm     pwm
	channel uint8
}

// set sets the duty cycle of the output, where 255 is always on.
func (o output) set(duty uint8) {
	o.pwm.Set(o.channel, o.pwm.Top()*uint32(duty)/255)
}

func configureOutputs(pins []outputPin, frequency uint64) ([]output, error) {
	configured := make(map[pwm]bool)
	outputs := make([]output, len(pins))

	for i, p := range pins {
		if !configured[p.pwm] {
			if err := p.pwm.Configure(machine.PWMConfig{Period: 1e9 / frequency}); err != nil {
				return nil, fmt.Errorf("failed to configure PWM for output %d: %w", i, err)
			}
			configured[p.pwm] = true
		}

		ch, err := p.pwm.Channel(p.pin)
		if err != nil {
			return nil, fmt.Errorf("failed to get PWM channel for output %d: %w", i, err)
		}

		outputs[i] = output{pwm: p.pwm, channel: ch}
		outputs[i].set(0)
	}

	return outputs, nil
}
