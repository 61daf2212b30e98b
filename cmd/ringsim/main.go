// Command ringsim runs the ring engine in the terminal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/nonvol"
	"libdb.so/ringglow/internal/ring"
	"libdb.so/ringglow/internal/settings"
)

var (
	channels  = 12
	rate      = 60
	imagePath = ""
	logPath   = ""
	verbose   = false
)

func init() {
	pflag.IntVarP(&channels, "channels", "n", channels, "number of outputs on the ring")
	pflag.IntVarP(&rate, "rate", "r", rate, "frames per second")
	pflag.StringVarP(&imagePath, "settings", "s", imagePath, "settings image file (in memory if empty)")
	pflag.StringVarP(&logPath, "log", "l", logPath, "log file (no logs if empty)")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if channels < 1 || rate < 1 {
		return errors.New("channels and rate must be positive")
	}

	var logOutput io.Writer = io.Discard
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "ringsim")
		if err != nil {
			return errors.Wrap(err, "failed to open log file")
		}
		defer f.Close()
		logOutput = f
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var medium nonvol.Medium = nonvol.NewMemory(settings.RecordSize)
	if imagePath != "" {
		f, err := nonvol.OpenFile(imagePath)
		if err != nil {
			return errors.Wrap(err, "failed to open settings image")
		}
		defer f.Close()
		medium = f
	}

	store := settings.NewStore(medium, 0, ring.DefaultSettings(), logger.With("component", "settings"))

	duty := newDutyRecorder(channels)
	handles := make([]ring.Channel, channels)
	for i := range handles {
		handles[i] = ring.Channel(i)
	}

	engine, err := ring.NewEngine(handles, ring.Options{
		Driver: duty,
		Store:  store,
		Logger: logger.With("component", "engine"),
	})
	if err != nil {
		return err
	}

	dispatcher := control.NewDispatcher(engine, logger.With("component", "control"))

	m := newModel(engine, dispatcher, duty, time.Second/time.Duration(rate))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return errors.Wrap(err, "simulator failed")
	}

	return nil
}
