// Package bricks turns an occupancy grid into a keyed map of brick cells,
// merges adjacent cells into larger footprints and works out which brick
// faces are exposed.
package bricks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key is a lattice coordinate.
type Key struct {
	X, Y, Z int
}

// String formats the key as "x,y,z".
func (k Key) String() string {
	return strconv.Itoa(k.X) + "," + strconv.Itoa(k.Y) + "," + strconv.Itoa(k.Z)
}

// ParseKey parses the "x,y,z" form produced by String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("bricks: malformed key %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Key{}, fmt.Errorf("bricks: malformed key %q: %w", s, err)
		}
		v[i] = n
	}
	return Key{v[0], v[1], v[2]}, nil
}

// MarshalText lets keys be used as JSON object keys.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the "x,y,z" form.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Less orders keys by Z, then Y, then X.
func (k Key) Less(o Key) bool {
	if k.Z != o.Z {
		return k.Z < o.Z
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.X < o.X
}

// Offset returns k moved by (dx, dy, dz).
func (k Key) Offset(dx, dy, dz int) Key {
	return Key{k.X + dx, k.Y + dy, k.Z + dz}
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
