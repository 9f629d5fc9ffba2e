package derangement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// permutations returns every ordering of items.
func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}

func TestFindCycles(t *testing.T) {
	original := []string{"A", "B", "C", "D", "E"}

	t.Run("Identity", func(t *testing.T) {
		cycles, err := FindCycles(original, original)

		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A"}, {"B"}, {"C"}, {"D"}, {"E"}}, cycles)
	})

	t.Run("ThreeAndTwo", func(t *testing.T) {
		result := []string{"B", "C", "A", "E", "D"}

		cycles, err := FindCycles(original, result)

		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A", "B", "C"}, {"D", "E"}}, cycles)
		assert.Equal(t, []int{3, 2}, CycleLengths(cycles))
	})

	t.Run("SingleCycleStartsAtFirstItem", func(t *testing.T) {
		result := []string{"D", "A", "E", "C", "B"}

		cycles, err := FindCycles(original, result)

		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A", "D", "C", "E", "B"}}, cycles)
	})

	t.Run("Deterministic", func(t *testing.T) {
		result := []string{"C", "E", "A", "B", "D"}

		first, err := FindCycles(original, result)
		require.NoError(t, err)
		second, err := FindCycles(original, result)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("NotPermutation", func(t *testing.T) {
		_, err := FindCycles(original, []string{"A", "B"})
		require.ErrorIs(t, err, ErrNotPermutation)

		_, err = FindCycles(original, []string{"A", "A", "C", "D", "E"})
		require.ErrorIs(t, err, ErrNotPermutation)

		_, err = FindCycles(original, []string{"A", "B", "C", "D", "Z"})
		require.ErrorIs(t, err, ErrNotPermutation)
	})
}

func TestFindCycles_PartitionsEveryPermutation(t *testing.T) {
	original := []string{"A", "B", "C", "D", "E"}

	for _, result := range permutations(original) {
		cycles, err := FindCycles(original, result)
		require.NoError(t, err)

		seen := map[string]int{}
		for _, c := range cycles {
			require.NotEmpty(t, c)
			for _, item := range c {
				seen[item]++
			}
		}
		require.Len(t, seen, len(original))
		for _, count := range seen {
			require.Equal(t, 1, count)
		}

		next := map[string]string{}
		for i := range original {
			next[original[i]] = result[i]
		}
		for _, c := range cycles {
			x := c[0]
			for step := 1; step <= len(c); step++ {
				x = next[x]
				if step < len(c) {
					require.NotEqual(t, c[0], x)
				}
			}
			require.Equal(t, c[0], x)
		}
	}
}

func TestValidate(t *testing.T) {
	original := []string{"A", "B", "C", "D"}

	assert.NoError(t, Validate(original, []string{"B", "C", "D", "A"}))
	assert.ErrorIs(t, Validate(original, []string{"A", "C", "D", "B"}), ErrSelfAssignment)
	assert.ErrorIs(t, Validate(original, []string{"B", "A", "D", "C"}), ErrMutualPair)
	assert.ErrorIs(t, Validate(original, []string{"B", "C", "D"}), ErrNotPermutation)
	assert.ErrorIs(t, Validate([]string{"A", "A"}, []string{"A", "A"}), ErrDuplicateItem)
}

func TestValidate_MatchesCycleLengths(t *testing.T) {
	expected := map[int]int{3: 2, 4: 6, 5: 24, 6: 160}

	for n, want := range expected {
		original := names(n)
		got := 0
		for _, result := range permutations(original) {
			cycles, err := FindCycles(original, result)
			require.NoError(t, err)

			short := false
			for _, l := range CycleLengths(cycles) {
				if l < 3 {
					short = true
				}
			}
			valid := Validate(original, result) == nil
			require.Equal(t, !short, valid, "result %v", result)
			if valid {
				got++
			}
		}
		assert.Equal(t, want, got, "N=%d", n)
	}
}
