//go:build release

package global

import "fmt"

var MAJOR = 2
var MINOR = 0
var PATCH = 0

var Version = fmt.Sprintf("%d.%d.%d", MAJOR, MINOR, PATCH)
