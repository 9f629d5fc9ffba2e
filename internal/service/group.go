package service

import (
	"context"
	"fmt"

	"secretsanta/internal/domain"
)

func (s *Service) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return domain.Group{}, err
	}
	return s.repo.CreateGroup(ctx, name)
}

func (s *Service) GetStatus(ctx context.Context, groupName string) (domain.Status, error) {
	group, err := s.repo.GetGroup(ctx, groupName)
	if err != nil {
		return domain.Status{}, err
	}
	participants, err := s.repo.ListParticipants(ctx, groupName)
	if err != nil {
		return domain.Status{}, fmt.Errorf("listing participants: %w", err)
	}
	names := participantNames(participants)
	return domain.Status{
		GroupName:         group.Name,
		TotalParticipants: len(names),
		IsDrawn:           group.IsDrawn(),
		Participants:      names,
		DrawnAt:           group.DrawnAt,
	}, nil
}

// Reset removes the group together with its participants and assignments.
func (s *Service) Reset(ctx context.Context, groupName string) error {
	err := s.inTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockGroup(ctx, groupName); err != nil {
			return err
		}
		return s.repo.DeleteGroup(ctx, groupName)
	})
	if err != nil {
		return err
	}
	s.log.Info("group reset", "group", groupName)
	return nil
}
