package profile

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

type roleKind int

const (
	roleNone roleKind = iota
	roleLabel
	roleWeighted
)

// Role is either a free-form label ("Designer") or a weighted set of roles
// ({"backend": 0.7, "ml": 0.3}). The zero value is an absent role.
type Role struct {
	kind    roleKind
	label   string
	weights map[string]float64
}

// LabelRole builds a single-label role.
func LabelRole(label string) Role {
	return Role{kind: roleLabel, label: label}
}

// WeightedRole builds a weighted role. The map is copied.
func WeightedRole(weights map[string]float64) Role {
	cp := make(map[string]float64, len(weights))
	for k, v := range weights {
		cp[k] = v
	}
	return Role{kind: roleWeighted, weights: cp}
}

func (r Role) IsZero() bool     { return r.kind == roleNone }
func (r Role) IsWeighted() bool { return r.kind == roleWeighted }

// Keys returns the weighted role names ordered by descending weight, ties by
// name. A label role yields its label.
func (r Role) Keys() []string {
	switch r.kind {
	case roleLabel:
		return []string{r.label}
	case roleWeighted:
		keys := make([]string, 0, len(r.weights))
		for k := range r.weights {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			wi, wj := r.weights[keys[i]], r.weights[keys[j]]
			if wi != wj {
				return wi > wj
			}
			return keys[i] < keys[j]
		})
		return keys
	default:
		return nil
	}
}

// Display renders the role as one line: weighted roles are joined with ", ".
func (r Role) Display() string {
	return strings.Join(r.Keys(), ", ")
}

func (r Role) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case roleLabel:
		return json.Marshal(r.label)
	case roleWeighted:
		return json.Marshal(r.weights)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, an object of weights, or any other
// scalar, which is kept as its literal text. Non-numeric weights count as 0.
func (r *Role) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Role{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = LabelRole(s)
	case data[0] == '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		weights := make(map[string]float64, len(raw))
		for k, v := range raw {
			f, err := strconv.ParseFloat(string(bytes.TrimSpace(v)), 64)
			if err != nil {
				f = 0
			}
			weights[k] = f
		}
		*r = Role{kind: roleWeighted, weights: weights}
	default:
		*r = LabelRole(string(data))
	}
	return nil
}
