package service

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secretsanta/internal/derangement"
	"secretsanta/internal/domain"
	"secretsanta/internal/repository"
	"secretsanta/internal/repository/file"
)

type stuckSource struct{}

func (stuckSource) IntN(n int) int { return n - 1 }

var fixedNow = time.Date(2025, 12, 1, 18, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := file.New(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return repo
}

func newService(repo repository.Repository, opts ...Option) *Service {
	base := []Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(repo, append(base, opts...)...)
}

func seed(t *testing.T, svc *Service, group string, people ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateGroup(ctx, group)
	require.NoError(t, err)
	for _, p := range people {
		_, _, err := svc.Register(ctx, group, p)
		require.NoError(t, err)
	}
}

func TestService_Group(t *testing.T) {
	ctx := context.Background()
	svc := newService(newRepo(t))

	t.Run("CreateGroup_TrimsName", func(t *testing.T) {
		g, err := svc.CreateGroup(ctx, "  office  ")

		require.NoError(t, err)
		assert.Equal(t, "office", g.Name)
	})

	t.Run("CreateGroup_Empty", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "   ")

		require.ErrorIs(t, err, domain.ErrInvalidName)
	})

	t.Run("CreateGroup_Duplicate", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "office")

		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("GetStatus", func(t *testing.T) {
		seed(t, svc, "status", "Ann", "Ben")

		st, err := svc.GetStatus(ctx, "status")

		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalParticipants)
		assert.False(t, st.IsDrawn)
		assert.Equal(t, []string{"Ann", "Ben"}, st.Participants)
		assert.Nil(t, st.DrawnAt)
	})

	t.Run("GetStatus_NotFound", func(t *testing.T) {
		_, err := svc.GetStatus(ctx, "missing")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Reset", func(t *testing.T) {
		seed(t, svc, "reset", "A", "B", "C")
		_, err := svc.Draw(ctx, "reset")
		require.NoError(t, err)

		require.NoError(t, svc.Reset(ctx, "reset"))

		_, err = svc.GetStatus(ctx, "reset")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.ErrorIs(t, svc.Reset(ctx, "reset"), domain.ErrNotFound)
	})
}

func TestService_Participants(t *testing.T) {
	ctx := context.Background()
	svc := newService(newRepo(t))
	_, err := svc.CreateGroup(ctx, "family")
	require.NoError(t, err)

	t.Run("Register_Success", func(t *testing.T) {
		p, total, err := svc.Register(ctx, "family", " Mom ")

		require.NoError(t, err)
		assert.Equal(t, "Mom", p.Name)
		assert.Equal(t, 1, total)
	})

	t.Run("Register_Duplicate", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "family", "Mom")

		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Register_EmptyName", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "family", "")

		require.ErrorIs(t, err, domain.ErrInvalidName)
	})

	t.Run("Register_UnknownGroup", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "strangers", "Bob")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("RemoveParticipant", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "family", "Dad")
		require.NoError(t, err)

		remaining, err := svc.RemoveParticipant(ctx, "family", "Dad")

		require.NoError(t, err)
		assert.Equal(t, 1, remaining)
	})

	t.Run("RemoveParticipant_NotFound", func(t *testing.T) {
		_, err := svc.RemoveParticipant(ctx, "family", "Uncle")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_Draw(t *testing.T) {
	ctx := context.Background()

	t.Run("NotEnoughParticipants", func(t *testing.T) {
		svc := newService(newRepo(t))
		seed(t, svc, "solo", "Alone")

		_, err := svc.Draw(ctx, "solo")

		require.ErrorIs(t, err, domain.ErrNotEnoughParticipants)
	})

	t.Run("TwoParticipantsUnsatisfiable", func(t *testing.T) {
		svc := newService(newRepo(t))
		seed(t, svc, "pair", "A", "B")

		_, err := svc.Draw(ctx, "pair")

		require.ErrorIs(t, err, domain.ErrUnsatisfiable)
		st, err := svc.GetStatus(ctx, "pair")
		require.NoError(t, err)
		assert.False(t, st.IsDrawn)
	})

	t.Run("UnknownGroup", func(t *testing.T) {
		svc := newService(newRepo(t))

		_, err := svc.Draw(ctx, "nobody")

		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		svc := newService(newRepo(t))
		people := []string{"Ann", "Ben", "Cat", "Dan", "Eve", "Fay", "Gus"}
		seed(t, svc, "office", people...)

		draw, err := svc.Draw(ctx, "office")

		require.NoError(t, err)
		assert.NotEmpty(t, draw.ID)
		assert.Equal(t, fixedNow, draw.DrawnAt)
		assert.GreaterOrEqual(t, draw.Attempts, 1)
		require.Len(t, draw.Assignments, len(people))

		receivers := make([]string, len(people))
		for i, p := range people {
			a, err := svc.GetResult(ctx, "office", p)
			require.NoError(t, err)
			assert.Equal(t, p, a.Giver)
			receivers[i] = a.Receiver
		}
		require.NoError(t, derangement.Validate(people, receivers))

		st, err := svc.GetStatus(ctx, "office")
		require.NoError(t, err)
		assert.True(t, st.IsDrawn)
		require.NotNil(t, st.DrawnAt)
		assert.True(t, fixedNow.Equal(*st.DrawnAt))
	})

	t.Run("RedrawReplacesAssignment", func(t *testing.T) {
		svc := newService(newRepo(t))
		seed(t, svc, "again", "A", "B", "C", "D", "E")

		first, err := svc.Draw(ctx, "again")
		require.NoError(t, err)
		second, err := svc.Draw(ctx, "again")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		stats, err := svc.DrawStats(ctx, "again")
		require.NoError(t, err)
		assert.Equal(t, second.ID, stats.DrawID)
	})

	t.Run("FailureKeepsPreviousAssignment", func(t *testing.T) {
		repo := newRepo(t)
		good := newService(repo)
		seed(t, good, "keep", "A", "B", "C", "D", "E", "F")
		before, err := good.Draw(ctx, "keep")
		require.NoError(t, err)

		stuck := newService(repo, WithRand(stuckSource{}), WithMaxAttempts(10))
		_, err = stuck.Draw(ctx, "keep")
		require.ErrorIs(t, err, domain.ErrDrawFailed)

		stats, err := good.DrawStats(ctx, "keep")
		require.NoError(t, err)
		assert.Equal(t, before.ID, stats.DrawID)
		for _, a := range before.Assignments {
			got, err := good.GetResult(ctx, "keep", a.Giver)
			require.NoError(t, err)
			assert.Equal(t, a.Receiver, got.Receiver)
		}
	})

	t.Run("FailureOnFreshGroupLeavesItUndrawn", func(t *testing.T) {
		svc := newService(newRepo(t), WithRand(stuckSource{}), WithMaxAttempts(3))
		seed(t, svc, "fresh", "A", "B", "C")

		_, err := svc.Draw(ctx, "fresh")

		require.ErrorIs(t, err, domain.ErrDrawFailed)
		_, err = svc.GetResult(ctx, "fresh", "A")
		require.ErrorIs(t, err, domain.ErrNotDrawn)
	})

	t.Run("DrawClosesRegistration", func(t *testing.T) {
		svc := newService(newRepo(t))
		seed(t, svc, "closed", "A", "B", "C")
		_, err := svc.Draw(ctx, "closed")
		require.NoError(t, err)

		_, _, err = svc.Register(ctx, "closed", "Late")
		require.ErrorIs(t, err, domain.ErrAlreadyDrawn)
		_, err = svc.RemoveParticipant(ctx, "closed", "A")
		require.ErrorIs(t, err, domain.ErrAlreadyDrawn)

		require.NoError(t, svc.ClearDraw(ctx, "closed"))

		_, total, err := svc.Register(ctx, "closed", "Late")
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		_, err = svc.GetResult(ctx, "closed", "A")
		require.ErrorIs(t, err, domain.ErrNotDrawn)
	})
}

func TestService_GetResult(t *testing.T) {
	ctx := context.Background()
	svc := newService(newRepo(t))
	seed(t, svc, "g", "A", "B", "C")

	_, err := svc.GetResult(ctx, "g", "A")
	require.ErrorIs(t, err, domain.ErrNotDrawn)

	_, err = svc.Draw(ctx, "g")
	require.NoError(t, err)

	_, err = svc.GetResult(ctx, "g", "Z")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetResult(ctx, "missing", "A")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_DrawStats(t *testing.T) {
	ctx := context.Background()
	svc := newService(newRepo(t))
	seed(t, svc, "stats", "A", "B", "C", "D", "E", "F", "G", "H", "I")

	_, err := svc.DrawStats(ctx, "stats")
	require.ErrorIs(t, err, domain.ErrNotDrawn)

	draw, err := svc.Draw(ctx, "stats")
	require.NoError(t, err)

	stats, err := svc.DrawStats(ctx, "stats")
	require.NoError(t, err)
	assert.Equal(t, draw.ID, stats.DrawID)
	assert.Equal(t, draw.Attempts, stats.Attempts)
	assert.Equal(t, 9, stats.Participants)

	sum := 0
	for _, l := range stats.CycleLengths {
		assert.GreaterOrEqual(t, l, 3)
		sum += l
	}
	assert.Equal(t, 9, sum)
}

func TestService_ConcurrentDraws(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := New(repo)
	people := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	seed(t, svc, "race", people...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Draw(ctx, "race")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assignments, err := repo.ListAssignments(ctx, "race")
	require.NoError(t, err)
	receivers := make([]string, len(assignments))
	for i, a := range assignments {
		require.Equal(t, people[i], a.Giver)
		receivers[i] = a.Receiver
	}
	require.NoError(t, derangement.Validate(people, receivers))
}

func TestService_DrawLogsWithoutReceivers(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	svc := newService(newRepo(t), WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	seed(t, svc, "quiet", "Alice", "Bruno", "Chiara", "Dmitri")

	_, err := svc.Draw(ctx, "quiet")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"group drawn"`)
	assert.Contains(t, out, `"cycles":[4]`)
	for _, name := range []string{"Alice", "Bruno", "Chiara", "Dmitri"} {
		assert.NotContains(t, out, name)
	}
}

func TestService_ResetWaitsForWriter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := newService(repo)
	seed(t, svc, "office", "A", "B", "C")

	held := make(chan struct{})
	release := make(chan struct{})
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- repo.(repository.Transactor).RunInTx(ctx, func(ctx context.Context) error {
			if _, err := repo.LockGroup(ctx, "office"); err != nil {
				return err
			}
			close(held)
			<-release
			_, err := repo.AddParticipant(ctx, "office", "D")
			return err
		})
	}()
	<-held

	resetDone := make(chan error, 1)
	go func() { resetDone <- svc.Reset(ctx, "office") }()

	select {
	case err := <-resetDone:
		t.Fatalf("reset finished while a writer held the group: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-writerDone)
	require.NoError(t, <-resetDone)

	_, err := repo.GetGroup(ctx, "office")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.CreateGroup(ctx, "office")
	require.NoError(t, err)
	ps, err := repo.ListParticipants(ctx, "office")
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestWithRand_ConcurrentUse(t *testing.T) {
	svc := New(newRepo(t), WithRand(rand.New(rand.NewPCG(5, 6))))
	require.IsType(t, &lockedSource{}, svc.rand)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				n := svc.rand.IntN(10)
				assert.True(t, n >= 0 && n < 10)
			}
		}()
	}
	wg.Wait()
}
