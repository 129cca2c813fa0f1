package meter

import (
	"io"
	"sync"
	"time"

	"github.com/negrel/assert"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
)

// below this a duration is treated as no time at all and rates are reported as 0.
const minElapsed = time.Microsecond

func rate(n uint64, d time.Duration) uint64 {
	if d < minElapsed {
		return 0
	}

	return uint64(float64(n) / d.Seconds())
}

// Summary is the final result of a run.
type Summary struct {
	Total   uint64
	Elapsed time.Duration
}

// AverageRate is the average speed in bytes per second, truncated.
func (s Summary) AverageRate() uint64 {
	return rate(s.Total, s.Elapsed)
}

// WriteTo writes the final block in a single Write call.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("\nFinished!\nTotal data: ")
	_, _ = buf.WriteString(FormatBytes(float64(s.Total)))
	_, _ = buf.WriteString("\nAverage speed: ")
	_, _ = buf.WriteString(FormatBytes(float64(s.AverageRate())))
	_, _ = buf.WriteString("/s\n")

	n, err := w.Write(buf.B)
	if err == nil {
		assert.Equal(n, buf.Len())
	}

	return int64(n), err
}

// Output is the diagnostic stream shared by the reporter and the interrupt handler.
// Once a summary is written nothing else is.
type Output struct {
	w        io.Writer
	m        sync.Mutex
	finished atomic.Bool
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Rate prints one periodic "<rate>/s" line.
func (o *Output) Rate(bytesPerSecond uint64) {
	o.m.Lock()
	defer o.m.Unlock()

	if o.finished.Load() {
		return
	}

	_, _ = io.WriteString(o.w, FormatBytes(float64(bytesPerSecond))+"/s\n")
}

// Finish prints s and reports whether it was the first summary written.
func (o *Output) Finish(s Summary) bool {
	if !o.finished.CompareAndSwap(false, true) {
		return false
	}

	o.m.Lock()
	defer o.m.Unlock()

	_, _ = s.WriteTo(o.w)

	return true
}
