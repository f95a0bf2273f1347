// Package spin holds the physical model definitions: classical Ising,
// standard q-state Potts and transverse-field quantum Ising models, with
// JSON (de)serialization, structural validation, seeded instance
// generators and brute-force reference partition functions. The models
// are plain data holders; turning them into weighted CNF is the encode
// package's job.
package spin

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Coupling is one pairwise interaction term between spins I and J. On
// the wire it is the [i, j, strength] triple of the model files.
type Coupling struct {
	I        int
	J        int
	Strength float64
}

func (c Coupling) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{c.I, c.J, c.Strength})
}

func (c *Coupling) UnmarshalJSON(data []byte) error {
	raw, err := tuple(data, 3, "coupling")
	if err != nil {
		return err
	}
	if c.I, err = tupleIndex(raw[0]); err != nil {
		return errors.Wrap(err, "coupling spin")
	}
	if c.J, err = tupleIndex(raw[1]); err != nil {
		return errors.Wrap(err, "coupling spin")
	}
	if c.Strength, err = raw[2].Float64(); err != nil {
		return errors.Wrap(err, "coupling strength")
	}
	return nil
}

// Edge is an undirected interaction pair, serialized as [i, j].
type Edge struct {
	I int
	J int
}

func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.I, e.J})
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	raw, err := tuple(data, 2, "edge")
	if err != nil {
		return err
	}
	if e.I, err = tupleIndex(raw[0]); err != nil {
		return errors.Wrap(err, "edge site")
	}
	if e.J, err = tupleIndex(raw[1]); err != nil {
		return errors.Wrap(err, "edge site")
	}
	return nil
}

// SiteField is an external field strength resolved at one site and one
// state, serialized as [site, state, strength].
type SiteField struct {
	Site     int
	State    int
	Strength float64
}

func (f SiteField) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{f.Site, f.State, f.Strength})
}

func (f *SiteField) UnmarshalJSON(data []byte) error {
	raw, err := tuple(data, 3, "external field")
	if err != nil {
		return err
	}
	if f.Site, err = tupleIndex(raw[0]); err != nil {
		return errors.Wrap(err, "field site")
	}
	if f.State, err = tupleIndex(raw[1]); err != nil {
		return errors.Wrap(err, "field state")
	}
	if f.Strength, err = raw[2].Float64(); err != nil {
		return errors.Wrap(err, "field strength")
	}
	return nil
}

func tuple(data []byte, want int, what string) ([]json.Number, error) {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, what)
	}
	if len(raw) != want {
		return nil, errors.Errorf("%s wants %d entries, got %d", what, want, len(raw))
	}
	return raw, nil
}

func tupleIndex(n json.Number) (int, error) {
	i, err := n.Int64()
	return int(i), err
}

// orderPair normalizes an undirected pair so the smaller index comes
// first.
func orderPair(i, j int) (int, int) {
	if i > j {
		return j, i
	}
	return i, j
}

// setCoupling overrides the strength between i and j, appending a new
// coupling if the pair is not present yet.
func setCoupling(cs []Coupling, i, j int, strength float64) []Coupling {
	i, j = orderPair(i, j)
	for k := range cs {
		if cs[k].I == i && cs[k].J == j {
			cs[k].Strength = strength
			return cs
		}
	}
	return append(cs, Coupling{I: i, J: j, Strength: strength})
}

// addCoupling sums strength with any existing strength between i and j.
func addCoupling(cs []Coupling, i, j int, strength float64) []Coupling {
	i, j = orderPair(i, j)
	for k := range cs {
		if cs[k].I == i && cs[k].J == j {
			cs[k].Strength += strength
			return cs
		}
	}
	return append(cs, Coupling{I: i, J: j, Strength: strength})
}

// couplingAt resolves the strength between i and j, zero when the pair
// is absent.
func couplingAt(cs []Coupling, i, j int) float64 {
	i, j = orderPair(i, j)
	for _, c := range cs {
		if c.I == i && c.J == j {
			return c.Strength
		}
	}
	return 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
