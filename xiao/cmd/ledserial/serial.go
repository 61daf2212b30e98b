package main

import (
	"io"
	"machine"
	"time"
)

// pollInterval is how long a read sleeps when no byte is buffered.
const pollInterval = time.Millisecond

// serialPort adapts a machine.Serialer to io.ReadWriter. Reads never return
// io.EOF; io.ReadFull keeps polling until enough bytes arrive.
type serialPort struct {
	machine.Serialer
}

var _ io.ReadWriter = serialPort{}

func (s serialPort) Read(b []byte) (int, error) {
	n := min(s.Buffered(), len(b))
	if n == 0 {
		// Sleeping lets the button poller run.
		time.Sleep(pollInterval)
		return 0, nil
	}

	for i := range n {
		c, err := s.ReadByte()
		if err != nil {
			return i, err
		}
		b[i] = c
	}
	return n, nil
}

func (s serialPort) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(b), nil
}
