package port

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ModeEphemeral selects the Default binder: the container runtime picks
	// any free host port.
	ModeEphemeral = -1

	// ModeFixed selects the Fixed binder: host port equals container port.
	ModeFixed = 0
)

// ErrInvalidOptions is returned when a binder cannot be constructed from
// the supplied arguments (negative shift offset, unknown mode).
var ErrInvalidOptions = errors.New("invalid port binder options")

// HostPort is the result of binding a container port. When Ephemeral is
// true Port is meaningless and the container runtime chooses the port.
type HostPort struct {
	Port      int  `json:"port,omitempty" yaml:"port,omitempty"`
	Ephemeral bool `json:"ephemeral,omitempty" yaml:"ephemeral,omitempty"`
}

// Ephemeral is the HostPort signalling "let the runtime pick".
var Ephemeral = HostPort{Ephemeral: true}

// String returns "ephemeral" or the decimal host port.
func (h HostPort) String() string {
	if h.Ephemeral {
		return "ephemeral"
	}
	return strconv.Itoa(h.Port)
}

// Binder maps a container-internal port to the host port it is published
// on. Implementations are pure and safe for concurrent use.
type Binder interface {
	Bind(containerPort int) HostPort
	String() string
}

// Default leaves host port selection to the container runtime.
type Default struct{}

// Bind always returns Ephemeral.
func (Default) Bind(int) HostPort { return Ephemeral }

func (Default) String() string { return "ephemeral" }

// Fixed publishes every container port on the same host port.
//
// Two modules exposing the same container port collide on the host; this
// binder does not detect that (the later binding wins in Definition.PortMap).
type Fixed struct{}

// Bind returns containerPort unchanged.
func (Fixed) Bind(containerPort int) HostPort { return HostPort{Port: containerPort} }

func (Fixed) String() string { return "fixed" }

// Shifting publishes container ports at containerPort+offset, so several
// environments can share one host by using distinct offsets.
type Shifting struct {
	offset int
}

// NewShifting creates a Shifting binder. The offset must not be negative.
func NewShifting(offset int) (*Shifting, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: shift offset must not be negative, got %d", ErrInvalidOptions, offset)
	}
	return &Shifting{offset: offset}, nil
}

// Offset returns the configured shift.
func (s *Shifting) Offset() int { return s.offset }

// Bind returns containerPort+offset.
func (s *Shifting) Bind(containerPort int) HostPort {
	return HostPort{Port: containerPort + s.offset}
}

func (s *Shifting) String() string { return fmt.Sprintf("shifting(+%d)", s.offset) }

// FromMode selects a binder from the --bind-ports selector:
//
//	-1  Default (ephemeral)
//	 0  Fixed (identity)
//	 N  Shifting by N, for N > 0
func FromMode(mode int) (Binder, error) {
	switch {
	case mode == ModeEphemeral:
		return Default{}, nil
	case mode == ModeFixed:
		return Fixed{}, nil
	case mode > 0:
		return NewShifting(mode)
	default:
		return nil, fmt.Errorf("%w: bind-ports must be -1, 0 or a positive offset, got %d", ErrInvalidOptions, mode)
	}
}
