package meter_test

import (
	"bytes"
	"sync"
)

type lockedBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.m.Lock()
	defer l.m.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.m.Lock()
	defer l.m.Unlock()
	return l.b.String()
}
