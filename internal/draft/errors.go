package draft

import "errors"

// Store rejection reasons. A rejected event leaves state untouched: a true
// duplicate is safe to drop, an out-of-order pick means a gap that must go
// through recovery rather than direct application.
var (
	ErrDuplicatePick   = errors.New("duplicate pick")
	ErrOutOfOrder      = errors.New("out of order pick")
	ErrUnknownTeam     = errors.New("unknown team")
	ErrSequenceEvicted = errors.New("sequence number not in retained history")
	ErrInvalidLeague   = errors.New("invalid league configuration")
)
