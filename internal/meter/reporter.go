package meter

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sample is one periodic measurement.
type Sample struct {
	// counter value read for this sample
	Counter uint64
	Delta   uint64
	Elapsed time.Duration
	Rate    uint64
}

// Reporter prints the transfer rate every interval until the reader finishes,
// then prints the final summary.
type Reporter struct {
	log     zerolog.Logger
	counter *Counter
	out     *Output

	// OnSample, if set, is called after every periodic report.
	OnSample func(Sample)

	interval time.Duration
	prev     uint64
	state    State
	quiet    bool
}

func NewReporter(counter *Counter, out *Output, interval time.Duration, quiet bool) *Reporter {
	return &Reporter{
		log:      log.With().Str("component", "reporter").Logger(),
		counter:  counter,
		out:      out,
		interval: interval,
		quiet:    quiet,
	}
}

// Run blocks until done is closed and returns the final summary.
func (r *Reporter) Run(done <-chan struct{}) Summary {
	start := time.Now()

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		r.setState(Waiting)

		select {
		case <-done:
			r.setState(Finished)

			s := Summary{Total: r.counter.Load(), Elapsed: time.Since(start)}
			if !r.out.Finish(s) {
				r.log.Debug().Msg("summary already printed")
			}

			return s
		case <-timer.C:
		}

		if !r.quiet {
			r.setState(Reporting)
			r.report()
		}

		timer.Reset(r.interval)
	}
}

func (r *Reporter) report() {
	sampled := time.Now()

	cur := r.counter.Load()
	delta := cur - r.prev
	r.prev = cur

	// the time spent sampling counts towards the interval
	elapsed := r.interval + time.Since(sampled)

	s := Sample{Counter: cur, Delta: delta, Elapsed: elapsed, Rate: rate(delta, elapsed)}
	r.out.Rate(s.Rate)

	if r.OnSample != nil {
		r.OnSample(s)
	}
}

func (r *Reporter) setState(s State) {
	if r.state == s {
		return
	}

	r.log.Trace().Stringer("from", r.state).Stringer("to", s).Msg("state change")
	r.state = s
}
