// Package repotest holds the behaviour every repository backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secretsanta/internal/domain"
	"secretsanta/internal/repository"
)

var errRollback = errors.New("rollback")

// Run exercises repo. Group names are prefixed with prefix so that one
// database can host several runs.
func Run(t *testing.T, repo repository.Repository, prefix string) {
	ctx := context.Background()
	name := func(s string) string { return prefix + "-" + s }

	t.Run("CreateGroup_Success", func(t *testing.T) {
		g, err := repo.CreateGroup(ctx, name("office"))

		require.NoError(t, err)
		assert.Equal(t, name("office"), g.Name)
		assert.False(t, g.IsDrawn())
		assert.Empty(t, g.DrawID)
	})

	t.Run("CreateGroup_Duplicate", func(t *testing.T) {
		_, err := repo.CreateGroup(ctx, name("dup"))
		require.NoError(t, err)

		_, err = repo.CreateGroup(ctx, name("dup"))

		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("GetGroup_NotFound", func(t *testing.T) {
		_, err := repo.GetGroup(ctx, name("missing"))

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Participants", func(t *testing.T) {
		g := name("family")
		_, err := repo.CreateGroup(ctx, g)
		require.NoError(t, err)

		for _, p := range []string{"Zoe", "Adam", "Mia"} {
			_, err := repo.AddParticipant(ctx, g, p)
			require.NoError(t, err)
		}

		_, err = repo.AddParticipant(ctx, g, "Adam")
		require.ErrorIs(t, err, domain.ErrConflict)

		ps, err := repo.ListParticipants(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, []string{"Zoe", "Adam", "Mia"}, participantNames(ps))

		require.NoError(t, repo.RemoveParticipant(ctx, g, "Adam"))
		require.ErrorIs(t, repo.RemoveParticipant(ctx, g, "Adam"), domain.ErrNotFound)

		ps, err = repo.ListParticipants(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, []string{"Zoe", "Mia"}, participantNames(ps))
	})

	t.Run("AddParticipant_UnknownGroup", func(t *testing.T) {
		_, err := repo.AddParticipant(ctx, name("nowhere"), "Bob")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListParticipants_Empty", func(t *testing.T) {
		g := name("empty")
		_, err := repo.CreateGroup(ctx, g)
		require.NoError(t, err)

		ps, err := repo.ListParticipants(ctx, g)

		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("SaveDraw_ReplacesAssignments", func(t *testing.T) {
		g := name("draw")
		seedGroup(t, repo, g, "A", "B", "C", "D")

		first := newDraw(g, []string{"A", "B", "C", "D"}, []string{"B", "C", "D", "A"})
		require.NoError(t, repo.SaveDraw(ctx, first))

		got, err := repo.GetGroup(ctx, g)
		require.NoError(t, err)
		assert.True(t, got.IsDrawn())
		assert.Equal(t, first.ID, got.DrawID)
		assert.Equal(t, first.Attempts, got.Attempts)

		second := newDraw(g, []string{"A", "B", "C", "D"}, []string{"C", "D", "B", "A"})
		require.NoError(t, repo.SaveDraw(ctx, second))

		as, err := repo.ListAssignments(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, second.Assignments, as)

		a, err := repo.GetAssignment(ctx, g, "C")
		require.NoError(t, err)
		assert.Equal(t, "B", a.Receiver)

		_, err = repo.GetAssignment(ctx, g, "Nobody")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SaveDraw_UnknownGroup", func(t *testing.T) {
		d := newDraw(name("ghost"), []string{"A", "B", "C"}, []string{"B", "C", "A"})

		require.ErrorIs(t, repo.SaveDraw(ctx, d), domain.ErrNotFound)
	})

	t.Run("ClearDraw", func(t *testing.T) {
		g := name("clear")
		seedGroup(t, repo, g, "A", "B", "C")
		require.NoError(t, repo.SaveDraw(ctx, newDraw(g, []string{"A", "B", "C"}, []string{"B", "C", "A"})))

		require.NoError(t, repo.ClearDraw(ctx, g))

		got, err := repo.GetGroup(ctx, g)
		require.NoError(t, err)
		assert.False(t, got.IsDrawn())
		as, err := repo.ListAssignments(ctx, g)
		require.NoError(t, err)
		assert.Empty(t, as)
		ps, err := repo.ListParticipants(ctx, g)
		require.NoError(t, err)
		assert.Len(t, ps, 3)
	})

	t.Run("DeleteGroup", func(t *testing.T) {
		g := name("reset")
		seedGroup(t, repo, g, "A", "B", "C")
		require.NoError(t, repo.SaveDraw(ctx, newDraw(g, []string{"A", "B", "C"}, []string{"C", "A", "B"})))

		require.NoError(t, repo.DeleteGroup(ctx, g))

		_, err := repo.GetGroup(ctx, g)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.ErrorIs(t, repo.DeleteGroup(ctx, g), domain.ErrNotFound)

		_, err = repo.CreateGroup(ctx, g)
		require.NoError(t, err)
		ps, err := repo.ListParticipants(ctx, g)
		require.NoError(t, err)
		assert.Empty(t, ps)
	})

	t.Run("RunInTx", func(t *testing.T) {
		tx, ok := repo.(repository.Transactor)
		require.True(t, ok, "repository must implement Transactor")

		g := name("tx")
		_, err := repo.CreateGroup(ctx, g)
		require.NoError(t, err)

		err = tx.RunInTx(ctx, func(ctx context.Context) error {
			locked, err := repo.LockGroup(ctx, g)
			require.NoError(t, err)
			assert.Equal(t, g, locked.Name)

			return tx.RunInTx(ctx, func(ctx context.Context) error {
				_, err := repo.AddParticipant(ctx, g, "Nested")
				return err
			})
		})
		require.NoError(t, err)

		ps, err := repo.ListParticipants(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, []string{"Nested"}, participantNames(ps))
	})

	t.Run("RunInTx_ErrorPropagates", func(t *testing.T) {
		tx := repo.(repository.Transactor)

		err := tx.RunInTx(ctx, func(ctx context.Context) error {
			return errRollback
		})

		require.ErrorIs(t, err, errRollback)
	})
}

// RunRollback checks that writes made inside a failed RunInTx are discarded.
// Backends without rollback support skip it.
func RunRollback(t *testing.T, repo repository.Repository, prefix string) {
	ctx := context.Background()
	tx := repo.(repository.Transactor)
	g := prefix + "-rollback"
	_, err := repo.CreateGroup(ctx, g)
	require.NoError(t, err)

	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := repo.AddParticipant(ctx, g, "Ghost"); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	ps, err := repo.ListParticipants(ctx, g)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func seedGroup(t *testing.T, repo repository.Repository, group string, people ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.CreateGroup(ctx, group)
	require.NoError(t, err)
	for _, p := range people {
		_, err := repo.AddParticipant(ctx, group, p)
		require.NoError(t, err)
	}
}

func newDraw(group string, givers, receivers []string) domain.Draw {
	d := domain.Draw{
		ID:        uuid.NewString(),
		GroupName: group,
		DrawnAt:   time.Now().UTC().Truncate(time.Millisecond),
		Attempts:  3,
	}
	for i := range givers {
		d.Assignments = append(d.Assignments, domain.Assignment{Giver: givers[i], Receiver: receivers[i]})
	}
	return d
}

func participantNames(ps []domain.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
