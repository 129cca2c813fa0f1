package meter

import (
	"go.uber.org/atomic"
)

// Counter is the number of bytes read from the input since start.
//
// Only the stream reader calls Add, any goroutine may call Load.
// Load never blocks, so it is safe to call from the interrupt path.
type Counter struct {
	n atomic.Uint64
}

func (c *Counter) Add(n uint64) uint64 {
	return c.n.Add(n)
}

func (c *Counter) Load() uint64 {
	return c.n.Load()
}
