package server

import "time"

type guardResult int

const (
	guardAllow guardResult = iota
	guardDrop
	guardKick
)

// inputGuard limits how many input messages a client may send per second.
// Messages over the limit are dropped; every second that overflows counts as
// one violation and too many violations get the client kicked.
// Only the read pump touches it.
type inputGuard struct {
	limit         int
	maxViolations int

	windowStart time.Time
	count       int
	violated    bool
	violations  int
}

// newInputGuard returns a guard; a limit <= 0 disables it.
func newInputGuard(limit, maxViolations int) *inputGuard {
	return &inputGuard{limit: limit, maxViolations: maxViolations}
}

func (g *inputGuard) check(now time.Time) guardResult {
	if g.limit <= 0 {
		return guardAllow
	}

	if now.Sub(g.windowStart) >= time.Second {
		g.windowStart = now
		g.count = 0
		g.violated = false
	}

	g.count++
	if g.count <= g.limit {
		return guardAllow
	}

	if !g.violated {
		g.violated = true
		g.violations++
	}
	if g.maxViolations > 0 && g.violations >= g.maxViolations {
		return guardKick
	}
	return guardDrop
}
