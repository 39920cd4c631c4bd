package label

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for empty ordinal paths and non-positive ordinals.
var ErrInvalidPath = errors.New("invalid ordinal path")

// Path is an ordinal path: the 1-based sibling position of each node on the
// way from the outermost level down to the addressed node.
type Path []int

// Validate checks that p is non-empty and every ordinal is positive.
func (p Path) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for i, c := range p {
		if c < 1 {
			return fmt.Errorf("%w: ordinal %d at depth %d", ErrInvalidPath, c, i)
		}
	}
	return nil
}

// Depth is the number of ordinals in p.
func (p Path) Depth() int { return len(p) }

// Last returns the final ordinal, or 0 for an empty path.
func (p Path) Last() int {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// Parent returns p without its last ordinal.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p.Clone()[:len(p)-1]
}

// Sibling returns p with its last ordinal incremented: the path of the
// hypothetical next sibling.
func (p Path) Sibling() Path {
	s := p.Clone()
	if len(s) > 0 {
		s[len(s)-1]++
	}
	return s
}

// Child returns p extended with ordinal i.
func (p Path) Child(i int) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)
	return append(c, i)
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// HasPrefix reports whether q is an ancestor-or-self of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// String renders p as dot-separated ordinals, e.g. "1.2.3".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// ParsePath reads the dotted form produced by String.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	fields := strings.Split(s, ".")
	p := make(Path, len(fields))
	for i, f := range fields {
		c, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, f)
		}
		p[i] = c
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
