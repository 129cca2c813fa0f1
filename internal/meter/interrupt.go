package meter

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InterruptHandler prints the final summary and exits the process when an
// interrupt signal arrives, without waiting for the stream to end.
type InterruptHandler struct {
	start   time.Time
	log     zerolog.Logger
	counter *Counter
	out     *Output
	exit    func(code int)
	ch      chan os.Signal
	install sync.Once
	stop    sync.Once
}

// NewInterruptHandler captures start as the beginning of the run.
// exit is called with 0 after the summary is printed, usually os.Exit.
func NewInterruptHandler(counter *Counter, start time.Time, out *Output, exit func(code int)) *InterruptHandler {
	return &InterruptHandler{
		start:   start,
		log:     log.With().Str("component", "interrupt").Logger(),
		counter: counter,
		out:     out,
		exit:    exit,
		ch:      make(chan os.Signal, 1),
	}
}

// Install registers the handler for interrupt signals. Only the first call has an effect.
func (h *InterruptHandler) Install() {
	h.install.Do(func() {
		signal.Notify(h.ch, interruptSignals...)

		go func() {
			sig, ok := <-h.ch
			if !ok {
				return
			}

			h.log.Debug().Stringer("signal", sig).Msg("interrupted")
			h.Fire()
		}()
	})
}

// Stop unregisters the handler.
func (h *InterruptHandler) Stop() {
	h.stop.Do(func() {
		signal.Stop(h.ch)
		close(h.ch)
	})
}

// Fire prints the summary of the bytes counted so far and calls exit(0).
func (h *InterruptHandler) Fire() Summary {
	elapsed := time.Since(h.start)
	s := Summary{Total: h.counter.Load(), Elapsed: elapsed}

	if !h.out.Finish(s) {
		h.log.Debug().Msg("summary already printed")
	}

	h.exit(0)

	return s
}
