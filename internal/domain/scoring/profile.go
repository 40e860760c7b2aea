// Package scoring computes bounded 0-100 quality scores from weighted factors
// and can explain each computation.
package scoring

import (
	"fmt"
)

// NeutralScore is substituted when a factor's raw input is missing or
// malformed. Scoring a partially known entity always succeeds.
const NeutralScore = 50

const maxScore = 100

// Normalizer maps an entity's raw metrics to a 0-100 sub-score for one factor.
type Normalizer func(metrics map[string]any) int

// Factor pairs a named weight with the normalizer producing its sub-score.
type Factor struct {
	Name      string
	Weight    int
	Normalize Normalizer
}

// Profile is an ordered set of weighted factors. Weights sum to exactly 100;
// the invariant is enforced once at construction, never at scoring time.
type Profile struct {
	name    string
	factors []Factor
}

// NewProfile validates and builds a scoring profile.
func NewProfile(name string, factors ...Factor) (*Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: profile name must not be empty", ErrInvalidProfile)
	}
	if len(factors) == 0 {
		return nil, fmt.Errorf("%w: profile %q has no factors", ErrInvalidProfile, name)
	}

	sum := 0
	for _, f := range factors {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: profile %q has an unnamed factor", ErrInvalidProfile, name)
		}
		if f.Normalize == nil {
			return nil, fmt.Errorf("%w: factor %q has no normalizer", ErrInvalidProfile, f.Name)
		}
		if f.Weight <= 0 {
			return nil, fmt.Errorf("%w: factor %q has non-positive weight %d", ErrInvalidProfile, f.Name, f.Weight)
		}
		sum += f.Weight
	}
	if sum != maxScore {
		return nil, fmt.Errorf("%w: profile %q weights sum to %d, want 100", ErrInvalidProfile, name, sum)
	}

	return &Profile{name: name, factors: append([]Factor(nil), factors...)}, nil
}

// MustProfile builds a profile and panics on invalid input. Intended for
// package-level profile definitions validated by tests.
func MustProfile(name string, factors ...Factor) *Profile {
	p, err := NewProfile(name, factors...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the profile's name.
func (p *Profile) Name() string { return p.name }

// Factors returns the profile's factors in declaration order.
func (p *Profile) Factors() []Factor { return append([]Factor(nil), p.factors...) }
