// Package persona holds the director roster and builds the prompts each
// director and the evaluation pass receive.
package persona

import (
	"fmt"

	"github.com/mferrall/showrunner/internal/config"
)

// Director is one proposal voice competing in every round.
type Director struct {
	Name   string
	Style  string
	Weight float64
}

// Roster is the ordered director table, built once from config. Roster
// order fixes result order everywhere downstream.
type Roster struct {
	directors []Director
}

// NewRoster builds a Roster from validated config entries.
func NewRoster(cfgs []config.Director) (*Roster, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("empty director roster")
	}
	directors := make([]Director, len(cfgs))
	for i, c := range cfgs {
		directors[i] = Director{Name: c.Name, Style: c.Style, Weight: c.Weight}
	}
	return &Roster{directors: directors}, nil
}

// All returns the directors in roster order.
func (r *Roster) All() []Director {
	out := make([]Director, len(r.directors))
	copy(out, r.directors)
	return out
}

// Names returns the director names in roster order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.directors))
	for i, d := range r.directors {
		names[i] = d.Name
	}
	return names
}

// Weights returns the name -> weight mapping.
func (r *Roster) Weights() map[string]float64 {
	w := make(map[string]float64, len(r.directors))
	for _, d := range r.directors {
		w[d.Name] = d.Weight
	}
	return w
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.directors)
}
