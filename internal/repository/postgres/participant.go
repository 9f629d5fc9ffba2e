package postgres

import (
	"context"

	"secretsanta/internal/domain"
)

func (r *repositoryImpl) AddParticipant(ctx context.Context, groupName, name string) (domain.Participant, error) {
	q := `INSERT INTO participants (group_name, name) VALUES ($1, $2) RETURNING group_name, name`
	var p domain.Participant
	err := r.getQuerier(ctx).QueryRow(ctx, q, groupName, name).Scan(&p.GroupName, &p.Name)
	return p, r.handleError(err)
}

func (r *repositoryImpl) ListParticipants(ctx context.Context, groupName string) ([]domain.Participant, error) {
	q := `SELECT group_name, name FROM participants WHERE group_name = $1 ORDER BY id`
	rows, err := r.getQuerier(ctx).Query(ctx, q, groupName)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	participants := make([]domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.GroupName, &p.Name); err != nil {
			return nil, r.handleError(err)
		}
		participants = append(participants, p)
	}
	return participants, r.handleError(rows.Err())
}

func (r *repositoryImpl) RemoveParticipant(ctx context.Context, groupName, name string) error {
	q := `DELETE FROM participants WHERE group_name = $1 AND name = $2`
	cmdTag, err := r.getQuerier(ctx).Exec(ctx, q, groupName, name)
	if err != nil {
		return r.handleError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
