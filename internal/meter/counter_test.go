package meter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pipemeter/internal/meter"
)

func TestCounterConcurrentReaders(t *testing.T) {
	var c meter.Counter
	sizes := []uint64{1, 4096, 17, 3, 65536, 999}

	var expected uint64
	for i := 0; i < 1000; i++ {
		expected += sizes[i%len(sizes)]
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var prev uint64
			for {
				select {
				case <-stop:
					return
				default:
				}

				cur := c.Load()
				if cur < prev {
					t.Errorf("counter went backwards: %d < %d", cur, prev)
					return
				}
				prev = cur
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		c.Add(sizes[i%len(sizes)])
	}

	close(stop)
	wg.Wait()

	require.Equal(t, expected, c.Load())
}
