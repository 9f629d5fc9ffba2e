// Package derangement draws random assignments in which nobody is matched
// with themselves and no two people are matched with each other.
package derangement

import (
	"errors"
	"math/rand/v2"
)

const DefaultMaxAttempts = 10000

var (
	ErrInsufficientInput = errors.New("at least 2 items are required")
	ErrUnsatisfiable     = errors.New("no assignment without mutual pairs exists for 2 items")
	ErrDuplicateItem     = errors.New("items must be unique")
	ErrAttemptsExhausted = errors.New("no valid assignment found within attempt budget")
)

// Source is the randomness used for shuffling. *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

type Options struct {
	MaxAttempts int
	Rand        Source
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Rand == nil {
		o.Rand = globalSource{}
	}
	return o
}

// Result holds an accepted draw. Receivers[i] receives from items[i].
type Result[T comparable] struct {
	Receivers []T
	Attempts  int
}

// Generate shuffles items until the shuffle has no fixed point and no
// 2-cycle, or the attempt budget runs out. items is not modified.
func Generate[T comparable](items []T, opts Options) (Result[T], error) {
	switch {
	case len(items) < 2:
		return Result[T]{}, ErrInsufficientInput
	case len(items) == 2:
		return Result[T]{}, ErrUnsatisfiable
	}

	pos, err := indexOf(items)
	if err != nil {
		return Result[T]{}, err
	}

	opts = opts.withDefaults()
	original := items
	candidate := make([]T, len(items))
	copy(candidate, items)

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		shuffle(candidate, opts.Rand)
		if accepted(original, candidate, pos) {
			return Result[T]{Receivers: candidate, Attempts: attempt}, nil
		}
	}
	return Result[T]{}, ErrAttemptsExhausted
}

// shuffle is a Fisher-Yates pass over s.
func shuffle[T any](s []T, src Source) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func accepted[T comparable](original, candidate []T, pos map[T]int) bool {
	for i := range original {
		if candidate[i] == original[i] {
			return false
		}
		if candidate[pos[candidate[i]]] == original[i] {
			return false
		}
	}
	return true
}

func indexOf[T comparable](items []T) (map[T]int, error) {
	pos := make(map[T]int, len(items))
	for i, item := range items {
		if _, ok := pos[item]; ok {
			return nil, ErrDuplicateItem
		}
		pos[item] = i
	}
	return pos, nil
}
