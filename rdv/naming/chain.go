package naming

import (
	"errors"
)

var (
	ErrNameReused   = errors.New("naming: derived name already visited")
	ErrChainEmpty   = errors.New("naming: chain has no starting name")
	ErrChainStalled = errors.New("naming: maximum generation reached")
)

const (
	// MaxGeneration bounds the number of steps of a single chain.
	MaxGeneration = 1 << 20
)

// Chain walks the names of one session forward. Each step derives the next
// name from the frame that was just sent or received; a name is never
// visited twice. A Chain is owned by a single session and is not safe for
// concurrent use.
type Chain struct {
	current    Name
	generation uint64
	visited    []Name
	seen       map[Name]struct{}
}

// NewChain starts a chain at first, normally FromSecret(label).
func NewChain(first Name) (*Chain, error) {
	if first == "" {
		return nil, ErrChainEmpty
	}
	return &Chain{
		current: first,
		visited: []Name{first},
		seen:    map[Name]struct{}{first: {}},
	}, nil
}

// Current returns the name of the slot to use next.
func (c *Chain) Current() Name { return c.current }

// Generation returns the number of steps taken.
func (c *Chain) Generation() uint64 { return c.generation }

// Advance moves to FromPayload(frame) and returns the new current name.
func (c *Chain) Advance(frame string) (Name, error) {
	if c.generation >= MaxGeneration {
		return "", ErrChainStalled
	}
	next := FromPayload(frame)
	if _, ok := c.seen[next]; ok {
		return "", ErrNameReused
	}
	c.seen[next] = struct{}{}
	c.visited = append(c.visited, next)
	c.current = next
	c.generation++
	return next, nil
}

// Visited returns every name the chain has stood on, in order.
func (c *Chain) Visited() []Name {
	out := make([]Name, len(c.visited))
	copy(out, c.visited)
	return out
}
