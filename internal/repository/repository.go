package repository

import (
	"context"

	"secretsanta/internal/domain"
)

type Repository interface {
	CreateGroup(ctx context.Context, name string) (domain.Group, error)
	GetGroup(ctx context.Context, name string) (domain.Group, error)
	LockGroup(ctx context.Context, name string) (domain.Group, error)
	DeleteGroup(ctx context.Context, name string) error

	AddParticipant(ctx context.Context, groupName, name string) (domain.Participant, error)
	ListParticipants(ctx context.Context, groupName string) ([]domain.Participant, error)
	RemoveParticipant(ctx context.Context, groupName, name string) error

	SaveDraw(ctx context.Context, draw domain.Draw) error
	ClearDraw(ctx context.Context, groupName string) error
	GetAssignment(ctx context.Context, groupName, giver string) (domain.Assignment, error)
	ListAssignments(ctx context.Context, groupName string) ([]domain.Assignment, error)
}

// Transactor runs fn so that no other writer interleaves with it.
// Calls nested inside fn reuse the outer transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
