package collision

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Ray is the distance from a grid edge to the first solid cell along one
// scan line. The zero value is Miss.
type Ray struct {
	dist int
	hit  bool
}

// Miss is a ray whose scan line contains no solid cell.
var Miss = Ray{}

// Hit returns a ray that found a solid cell after d empty cells.
func Hit(d int) Ray {
	return Ray{dist: d, hit: true}
}

// Distance returns the number of empty cells before the hit.
// ok is false for Miss.
func (r Ray) Distance() (d int, ok bool) {
	return r.dist, r.hit
}

// IsHit reports whether the ray found a solid cell.
func (r Ray) IsHit() bool {
	return r.hit
}

// Or returns the distance, or n for Miss.
func (r Ray) Or(n int) int {
	if !r.hit {
		return n
	}
	return r.dist
}

// String returns the distance, or "-" for Miss.
func (r Ray) String() string {
	if !r.hit {
		return "-"
	}
	return strconv.Itoa(r.dist)
}

// MarshalYAML encodes the ray as an integer, -1 for Miss.
func (r Ray) MarshalYAML() (interface{}, error) {
	return r.Or(-1), nil
}

// UnmarshalYAML decodes an integer written by MarshalYAML.
func (r *Ray) UnmarshalYAML(value *yaml.Node) error {
	var d int
	if err := value.Decode(&d); err != nil {
		return err
	}
	switch {
	case d == -1:
		*r = Miss
	case d >= 0:
		*r = Hit(d)
	default:
		return fmt.Errorf("invalid ray distance %d", d)
	}
	return nil
}

// Min returns the smallest distance in rays, substituting miss for every
// Miss. An empty slice yields miss.
func Min(rays []Ray, miss int) int {
	m := miss
	for _, r := range rays {
		if d := r.Or(miss); d < m {
			m = d
		}
	}
	return m
}
