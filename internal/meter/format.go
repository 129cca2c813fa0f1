package meter

import (
	"strconv"
)

var suffixes = [...]string{"bytes", "KiB", "MiB", "GiB", "TiB", "PiB"}

// FormatBytes renders a byte count with two decimals on a 1024 based scale,
// e.g. "0.00 bytes", "1.50 KiB".
//
// Values of 1024 PiB and above keep the PiB suffix.
func FormatBytes(bytes float64) string {
	v := bytes
	for _, suffix := range suffixes {
		if v < 1024 {
			return strconv.FormatFloat(v, 'f', 2, 64) + " " + suffix
		}
		v /= 1024
	}

	return strconv.FormatFloat(v*1024, 'f', 2, 64) + " " + suffixes[len(suffixes)-1]
}

// Bytes is a byte count that prints itself with FormatBytes.
type Bytes uint64

func (b Bytes) String() string {
	return FormatBytes(float64(b))
}
