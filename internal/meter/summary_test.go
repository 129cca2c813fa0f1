package meter_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pipemeter/internal/meter"
)

func TestSummaryWriteTo(t *testing.T) {
	var buf bytes.Buffer

	s := meter.Summary{Total: 3 * 1024 * 1024, Elapsed: 2 * time.Second}
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	require.Equal(t, "\nFinished!\nTotal data: 3.00 MiB\nAverage speed: 1.50 MiB/s\n", buf.String())
}

func TestSummaryZeroElapsed(t *testing.T) {
	s := meter.Summary{Total: 10_000}
	require.Zero(t, s.AverageRate())

	s = meter.Summary{Total: 10_000, Elapsed: time.Nanosecond}
	require.Zero(t, s.AverageRate())

	var buf bytes.Buffer
	_, err := meter.Summary{}.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, "\nFinished!\nTotal data: 0.00 bytes\nAverage speed: 0.00 bytes/s\n", buf.String())
}

func TestSummaryAverageRateTruncates(t *testing.T) {
	s := meter.Summary{Total: 1000, Elapsed: 3 * time.Second}
	require.EqualValues(t, 333, s.AverageRate())
}

func TestOutputFinishOnce(t *testing.T) {
	var buf bytes.Buffer
	o := meter.NewOutput(&buf)

	o.Rate(2048)

	var wg sync.WaitGroup
	var first sync.Map
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if o.Finish(meter.Summary{Total: 1024, Elapsed: time.Second}) {
				first.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	var winners int
	first.Range(func(_, _ any) bool {
		winners++
		return true
	})
	require.Equal(t, 1, winners)
	require.False(t, o.Finish(meter.Summary{Total: 1}))

	o.Rate(4096)

	require.Equal(t, "2.00 KiB/s\n\nFinished!\nTotal data: 1.00 KiB\nAverage speed: 1.00 KiB/s\n", buf.String())
	require.Equal(t, 1, strings.Count(buf.String(), "Finished!"))
}
