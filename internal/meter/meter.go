package meter

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pipemeter/internal/config"
	"pipemeter/internal/pkg/gctx"
)

type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Meter wires the stream reader, the reporter and the interrupt handler for one run.
type Meter struct {
	start     time.Time
	log       zerolog.Logger
	stdio     Stdio
	output    *Output
	interrupt *InterruptHandler
	counter   Counter
	cfg       config.Config
}

// Option customises a Meter.
type Option func(*Meter)

// WithExit replaces os.Exit as the interrupt exit function.
func WithExit(exit func(code int)) Option {
	return func(m *Meter) {
		m.interrupt.exit = exit
	}
}

func New(cfg config.Config, stdio Stdio, opts ...Option) *Meter {
	m := &Meter{
		start:  time.Now(),
		log:    log.With().Str("component", "meter").Logger(),
		stdio:  stdio,
		output: NewOutput(stdio.Err),
		cfg:    cfg,
	}

	m.interrupt = NewInterruptHandler(&m.counter, m.start, m.output, os.Exit)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// HandleInterrupts installs the interrupt handler for this meter.
func (m *Meter) HandleInterrupts() {
	m.interrupt.Install()
}

// Interrupt runs the interrupt path as if a signal was received.
func (m *Meter) Interrupt() Summary {
	return m.interrupt.Fire()
}

// Count returns the number of bytes read so far.
func (m *Meter) Count() uint64 {
	return m.counter.Load()
}

// Run meters the input until it ends and returns the summary.
// Cancelling ctx ends the stream before the next read.
func (m *Meter) Run(ctx context.Context) Summary {
	defer m.interrupt.Stop()

	in := m.stdio.In
	if ctx.Done() != nil {
		in = gctx.NewReader(ctx, in)
	}

	reader := NewStreamReader(in, m.stdio.Out, &m.counter, m.cfg.Meter.BlockSize, m.cfg.Meter.Forward)
	reporter := NewReporter(&m.counter, m.output, m.cfg.Interval(), m.cfg.Meter.Quiet)

	s := reporter.Run(reader.Start())

	reader.Wait()

	status := reader.Status()
	firstRead, eof := reader.Span()
	m.log.Debug().
		Err(reader.Err()).
		Str("total", humanize.IBytes(s.Total)).
		Str("peak_rate", humanize.IBytes(uint64(status.PeakRate))+"/s").
		Dur("elapsed", s.Elapsed).
		Time("first_read", firstRead).
		Time("end_of_stream", eof).
		Msg("finished")

	return s
}
