// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package verify

import "fmt"

// GateKind identifies one of the independent verification gates.
type GateKind int

const (
	GatePhysics GateKind = iota
	GateContext
	GateSocial
)

var gateNames = [...]string{"physics", "context", "social"}

func (k GateKind) String() string {
	if k < 0 || int(k) >= len(gateNames) {
		return fmt.Sprintf("gate(%d)", int(k))
	}
	return gateNames[k]
}

// MarshalText encodes the gate by name.
func (k GateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *GateKind) UnmarshalText(text []byte) error {
	for i, name := range gateNames {
		if name == string(text) {
			*k = GateKind(i)
			return nil
		}
	}
	return fmt.Errorf("verify: unknown gate %q", text)
}

// Weight is the score contribution of a passed gate.
func (k GateKind) Weight() float64 {
	switch k {
	case GatePhysics:
		return PhysicsWeight
	case GateContext:
		return ContextWeight
	case GateSocial:
		return SocialWeight
	}
	return 0
}

// Check is one sub-check of a gate.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// GateOutcome is the uniform result shape shared by every gate.
type GateOutcome struct {
	Kind   GateKind `json:"gate"`
	Passed bool     `json:"passed"`
	Checks []Check  `json:"checks"`
}

// evaluate passes a gate when every check passes.
func evaluate(kind GateKind, checks ...Check) GateOutcome {
	passed := true
	for _, c := range checks {
		passed = passed && c.Passed
	}
	return GateOutcome{Kind: kind, Passed: passed, Checks: checks}
}

// Check returns the named sub-check.
func (g GateOutcome) Check(name string) (Check, bool) {
	for _, c := range g.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}
