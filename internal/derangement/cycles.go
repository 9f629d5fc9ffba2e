package derangement

import "errors"

var (
	ErrNotPermutation = errors.New("result is not a permutation of original")
	ErrSelfAssignment = errors.New("item is assigned to itself")
	ErrMutualPair     = errors.New("two items are assigned to each other")
)

// FindCycles splits the assignment original[i] -> result[i] into disjoint
// cycles. Cycles are listed in the order their first member appears in
// original, and each cycle starts with that member.
func FindCycles[T comparable](original, result []T) ([][]T, error) {
	pos, err := permutationIndex(original, result)
	if err != nil {
		return nil, err
	}

	visited := make([]bool, len(original))
	var cycles [][]T
	for start := range original {
		if visited[start] {
			continue
		}
		var cycle []T
		for i := start; !visited[i]; i = pos[result[i]] {
			visited[i] = true
			cycle = append(cycle, original[i])
		}
		cycles = append(cycles, cycle)
	}
	return cycles, nil
}

func CycleLengths[T any](cycles [][]T) []int {
	lengths := make([]int, len(cycles))
	for i, c := range cycles {
		lengths[i] = len(c)
	}
	return lengths
}

// Validate reports whether result is an acceptable draw for original.
func Validate[T comparable](original, result []T) error {
	pos, err := permutationIndex(original, result)
	if err != nil {
		return err
	}
	for i := range original {
		if result[i] == original[i] {
			return ErrSelfAssignment
		}
		if result[pos[result[i]]] == original[i] {
			return ErrMutualPair
		}
	}
	return nil
}

func permutationIndex[T comparable](original, result []T) (map[T]int, error) {
	if len(original) != len(result) {
		return nil, ErrNotPermutation
	}
	pos, err := indexOf(original)
	if err != nil {
		return nil, err
	}
	seen := make([]bool, len(original))
	for _, r := range result {
		i, ok := pos[r]
		if !ok || seen[i] {
			return nil, ErrNotPermutation
		}
		seen[i] = true
	}
	return pos, nil
}
