package meter

type State uint8

//go:generate stringer -type=State
const (
	Waiting State = iota
	Reporting
	Finished
)
