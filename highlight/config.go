package highlight

import (
	"fmt"
	"strings"
)

// Register is the sentence register an answer is written in.
type Register string

const (
	// RegisterNone disables register checks.
	RegisterNone Register = "none"
	// RegisterKeigo is the polite です/ます register. Plain endings are flagged.
	RegisterKeigo Register = "keigo"
	// RegisterJoutai is the plain だ/である register. Polite endings are flagged.
	RegisterJoutai Register = "joutai"
)

// ParseRegister parses a register name. The empty string means RegisterNone.
func ParseRegister(s string) (Register, error) {
	switch r := Register(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RegisterNone:
		return RegisterNone, nil
	case RegisterKeigo, RegisterJoutai:
		return r, nil
	default:
		return RegisterNone, fmt.Errorf("%w: %q", ErrUnknownRegister, s)
	}
}

// Config selects the lint checks applied by Render.
type Config struct {
	Register        Register
	CheckDisallowed bool
}

// Enabled reports whether any lint check is on.
func (c Config) Enabled() bool {
	return len(c.patterns()) > 0
}

// patterns returns the enabled checks in priority order.
func (c Config) patterns() []*pattern {
	var out []*pattern
	if c.CheckDisallowed {
		out = append(out, disallowedPattern)
	}
	switch c.Register {
	case RegisterKeigo:
		out = append(out, keigoPattern)
	case RegisterJoutai:
		out = append(out, joutaiPattern)
	}
	return out
}
