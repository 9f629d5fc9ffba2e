package service

import (
	"context"

	"secretsanta/internal/domain"
)

// Register adds name to the group and returns the new participant count.
// Registration closes once the group has been drawn.
func (s *Service) Register(ctx context.Context, groupName, name string) (domain.Participant, int, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.Participant{}, 0, err
	}

	var (
		participant domain.Participant
		total       int
	)
	err = s.inTx(ctx, func(ctx context.Context) error {
		group, err := s.repo.LockGroup(ctx, groupName)
		if err != nil {
			return err
		}
		if group.IsDrawn() {
			return domain.ErrAlreadyDrawn
		}
		participant, err = s.repo.AddParticipant(ctx, groupName, name)
		if err != nil {
			return err
		}
		participants, err := s.repo.ListParticipants(ctx, groupName)
		total = len(participants)
		return err
	})
	if err != nil {
		return domain.Participant{}, 0, err
	}
	return participant, total, nil
}

func (s *Service) ListParticipants(ctx context.Context, groupName string) ([]domain.Participant, error) {
	return s.repo.ListParticipants(ctx, groupName)
}

// RemoveParticipant returns the number of participants left.
func (s *Service) RemoveParticipant(ctx context.Context, groupName, name string) (int, error) {
	var remaining int
	err := s.inTx(ctx, func(ctx context.Context) error {
		group, err := s.repo.LockGroup(ctx, groupName)
		if err != nil {
			return err
		}
		if group.IsDrawn() {
			return domain.ErrAlreadyDrawn
		}
		if err := s.repo.RemoveParticipant(ctx, groupName, name); err != nil {
			return err
		}
		participants, err := s.repo.ListParticipants(ctx, groupName)
		remaining = len(participants)
		return err
	})
	return remaining, err
}

func participantNames(ps []domain.Participant) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}
