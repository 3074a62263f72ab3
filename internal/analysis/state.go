package analysis

import "fmt"

// Phase tags which variant a State holds.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseIdle, PhasePending, PhaseSucceeded, PhaseFailed} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Outcome is a successful result tagged with the generation that
// produced it.
type Outcome[R any] struct {
	Generation uint64 `json:"generation"`
	Payload    R      `json:"payload"`
}

// State is the tagged union Idle | Pending{gen} | Succeeded{gen, outcome}
// | Failed{gen, err}. Build values with the constructors below; Outcome is
// set only for Succeeded and Err only for Failed.
type State[R any] struct {
	Phase      Phase
	Generation uint64
	Outcome    *Outcome[R]
	Err        error
}

func Idle[R any]() State[R] { return State[R]{Phase: PhaseIdle} }

func Pending[R any](gen uint64) State[R] {
	return State[R]{Phase: PhasePending, Generation: gen}
}

func Succeeded[R any](gen uint64, payload R) State[R] {
	return State[R]{
		Phase:      PhaseSucceeded,
		Generation: gen,
		Outcome:    &Outcome[R]{Generation: gen, Payload: payload},
	}
}

func Failed[R any](gen uint64, err error) State[R] {
	return State[R]{Phase: PhaseFailed, Generation: gen, Err: err}
}
