package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"secretsanta/internal/derangement"
	"secretsanta/internal/domain"
)

// Draw assigns every participant of the group a receiver and replaces any
// earlier assignment. When no assignment can be produced the stored state
// is left untouched.
func (s *Service) Draw(ctx context.Context, groupName string) (domain.Draw, error) {
	var (
		draw   domain.Draw
		cycles []int
	)
	err := s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockGroup(ctx, groupName); err != nil {
			return err
		}
		participants, err := s.repo.ListParticipants(ctx, groupName)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		givers := participantNames(participants)
		if len(givers) < 2 {
			return domain.ErrNotEnoughParticipants
		}

		res, err := derangement.Generate(givers, derangement.Options{
			MaxAttempts: s.maxAttempts,
			Rand:        s.rand,
		})
		switch {
		case errors.Is(err, derangement.ErrUnsatisfiable):
			return domain.ErrUnsatisfiable
		case errors.Is(err, derangement.ErrAttemptsExhausted):
			return fmt.Errorf("%w: gave up after %d attempts", domain.ErrDrawFailed, s.maxAttempts)
		case err != nil:
			return fmt.Errorf("generating assignment: %w", err)
		}

		if err := derangement.Validate(givers, res.Receivers); err != nil {
			return fmt.Errorf("generated assignment rejected: %w", err)
		}
		found, err := derangement.FindCycles(givers, res.Receivers)
		if err != nil {
			return fmt.Errorf("analyzing assignment: %w", err)
		}
		cycles = derangement.CycleLengths(found)

		draw = domain.Draw{
			ID:          uuid.NewString(),
			GroupName:   groupName,
			Assignments: make([]domain.Assignment, len(givers)),
			DrawnAt:     s.now().UTC(),
			Attempts:    res.Attempts,
		}
		for i, giver := range givers {
			draw.Assignments[i] = domain.Assignment{Giver: giver, Receiver: res.Receivers[i]}
		}
		return s.repo.SaveDraw(ctx, draw)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDrawFailed) {
			s.log.Warn("draw failed", "group", groupName, "error", err)
		}
		return domain.Draw{}, err
	}

	s.log.Info("group drawn",
		"group", groupName,
		"draw_id", draw.ID,
		"participants", len(draw.Assignments),
		"attempts", draw.Attempts,
		"cycles", cycles,
	)
	return draw, nil
}

func (s *Service) GetResult(ctx context.Context, groupName, giver string) (domain.Assignment, error) {
	group, err := s.repo.GetGroup(ctx, groupName)
	if err != nil {
		return domain.Assignment{}, err
	}
	if !group.IsDrawn() {
		return domain.Assignment{}, domain.ErrNotDrawn
	}
	return s.repo.GetAssignment(ctx, groupName, giver)
}

// DrawStats describes the shape of the current draw without naming receivers.
func (s *Service) DrawStats(ctx context.Context, groupName string) (domain.DrawStats, error) {
	group, err := s.repo.GetGroup(ctx, groupName)
	if err != nil {
		return domain.DrawStats{}, err
	}
	if !group.IsDrawn() {
		return domain.DrawStats{}, domain.ErrNotDrawn
	}
	assignments, err := s.repo.ListAssignments(ctx, groupName)
	if err != nil {
		return domain.DrawStats{}, fmt.Errorf("listing assignments: %w", err)
	}

	givers := make([]string, len(assignments))
	receivers := make([]string, len(assignments))
	for i, a := range assignments {
		givers[i] = a.Giver
		receivers[i] = a.Receiver
	}
	cycles, err := derangement.FindCycles(givers, receivers)
	if err != nil {
		return domain.DrawStats{}, fmt.Errorf("analyzing assignment: %w", err)
	}

	return domain.DrawStats{
		GroupName:    group.Name,
		DrawID:       group.DrawID,
		Attempts:     group.Attempts,
		Participants: len(assignments),
		CycleLengths: derangement.CycleLengths(cycles),
	}, nil
}

// ClearDraw drops the current assignment and reopens registration.
func (s *Service) ClearDraw(ctx context.Context, groupName string) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockGroup(ctx, groupName); err != nil {
			return err
		}
		return s.repo.ClearDraw(ctx, groupName)
	})
}
