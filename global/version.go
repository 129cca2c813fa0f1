//go:build !release

package global

var Version = "development"
