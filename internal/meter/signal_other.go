//go:build !unix

package meter

import (
	"os"
)

var interruptSignals = []os.Signal{os.Interrupt}
