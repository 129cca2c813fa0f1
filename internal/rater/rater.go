package rater

import (
	"errors"
	"io"
	"time"

	"github.com/mxk/go-flowrate/flowrate"
)

// Sink receives the size of every successful read.
type Sink interface {
	Add(n uint64) uint64
}

// Rater counts bytes flowing through an io.Reader.
// It is not safe for concurrent Read calls.
type Rater struct {
	r          io.Reader
	sink       Sink
	monitor    *flowrate.Monitor
	start, end time.Time
}

func NewRater(r io.Reader, sink Sink) *Rater {
	return &Rater{
		r:       r,
		sink:    sink,
		monitor: flowrate.New(time.Second, time.Second),
	}
}

func (r *Rater) Read(b []byte) (n int, err error) {
	if r.start.IsZero() {
		r.start = time.Now()
	}

	n, err = r.r.Read(b) // underlying io.Reader read

	if n > 0 {
		r.sink.Add(uint64(n))
		r.monitor.Update(n)
	}

	if errors.Is(err, io.EOF) {
		r.end = time.Now()
	}

	return
}

// Done marks the transfer as finished and returns the total bytes seen.
func (r *Rater) Done() int64 {
	return r.monitor.Done()
}

// Status returns the flow statistics of the underlying monitor.
func (r *Rater) Status() flowrate.Status {
	return r.monitor.Status()
}

// Span returns the time of the first read and of end-of-stream.
// end is zero if the stream did not end with io.EOF.
func (r *Rater) Span() (start, end time.Time) {
	return r.start, r.end
}
