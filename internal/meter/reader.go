package meter

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mxk/go-flowrate/flowrate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/trim21/errgo"

	"pipemeter/internal/rater"
)

// StreamReader drains an input stream in fixed size chunks, counting every
// byte and optionally copying it to an output stream.
type StreamReader struct {
	log     zerolog.Logger
	err     error
	in      *rater.Rater
	out     io.Writer
	done    chan struct{}
	buf     []byte
	wg      conc.WaitGroup
	once    sync.Once
	forward bool
}

func NewStreamReader(in io.Reader, out io.Writer, counter *Counter, blockSize int, forward bool) *StreamReader {
	if blockSize <= 0 {
		panic("block size must be positive")
	}

	return &StreamReader{
		log:     log.With().Str("component", "reader").Logger(),
		in:      rater.NewRater(in, counter),
		out:     out,
		done:    make(chan struct{}),
		buf:     make([]byte, blockSize),
		forward: forward,
	}
}

// Start runs the read loop on its own goroutine.
//
// The returned channel is never sent on; it is closed once the loop exits,
// whatever the reason. Calling Start again returns the same channel.
func (r *StreamReader) Start() <-chan struct{} {
	r.once.Do(func() {
		r.log.Debug().Str("block_size", humanize.IBytes(uint64(len(r.buf)))).Bool("forward", r.forward).Msg("start reading")

		r.wg.Go(func() {
			defer close(r.done)
			r.err = r.loop()
		})
	})

	return r.done
}

// Wait blocks until the read loop has returned.
// A panic in the loop is propagated here.
func (r *StreamReader) Wait() {
	r.wg.Wait()
}

// Err is the error that stopped the loop, nil on a clean end of stream.
// Only valid after the channel returned by Start is closed.
func (r *StreamReader) Err() error {
	return r.err
}

// Status returns the flow statistics of the input.
func (r *StreamReader) Status() flowrate.Status {
	return r.in.Status()
}

// Span returns the time of the first read and of end of stream.
// Only valid after the channel returned by Start is closed.
func (r *StreamReader) Span() (start, end time.Time) {
	return r.in.Span()
}

func (r *StreamReader) loop() error {
	defer r.in.Done()

	for {
		n, err := r.in.Read(r.buf)

		if n > 0 && r.forward {
			if werr := r.write(r.buf[:n]); werr != nil {
				r.log.Debug().Err(werr).Msg("stop reading")
				return werr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				r.log.Debug().Msg("end of stream")
				return nil
			}

			// read failures end the stream like EOF does
			r.log.Debug().Err(err).Msg("stop reading")
			return errgo.Wrap(err, "failed to read input")
		}
	}
}

// write is a single Write call, partial writes are not retried.
func (r *StreamReader) write(p []byte) error {
	n, err := r.out.Write(p)
	if err != nil {
		return errgo.Wrap(err, "failed to forward input")
	}

	if n != len(p) {
		return errgo.Wrap(io.ErrShortWrite, "failed to forward input")
	}

	return nil
}
