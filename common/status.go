package common

//go:generate go run github.com/dmarkham/enumer -json -type Status -trimprefix Status

// Status is the outcome of a dispatched job
type Status int

const (
	StatusDOWNLOADED Status = iota
	StatusSCHEDULED
	StatusSKIPPED
	StatusFAILED
)

// Done returns true if the job produced (or will produce) an image
func (s Status) Done() bool {
	return s == StatusDOWNLOADED || s == StatusSCHEDULED
}
