package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"secretsanta/internal/domain"
)

// SaveDraw replaces every assignment of the group in a single transaction.
func (r *repositoryImpl) SaveDraw(ctx context.Context, draw domain.Draw) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		q := `UPDATE groups SET draw_id = $1::text::uuid, drawn_at = $2, attempts = $3 WHERE name = $4`
		cmdTag, err := r.getQuerier(ctx).Exec(ctx, q, draw.ID, draw.DrawnAt, draw.Attempts, draw.GroupName)
		if err != nil {
			return r.handleError(err)
		}
		if cmdTag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if _, err := r.getQuerier(ctx).Exec(ctx, `DELETE FROM assignments WHERE group_name = $1`, draw.GroupName); err != nil {
			return r.handleError(err)
		}
		if len(draw.Assignments) == 0 {
			return nil
		}

		b := &pgx.Batch{}
		for _, a := range draw.Assignments {
			b.Queue("INSERT INTO assignments (group_name, giver, receiver) VALUES ($1, $2, $3)", draw.GroupName, a.Giver, a.Receiver)
		}
		br := r.getQuerier(ctx).SendBatch(ctx, b)
		defer br.Close()
		for i := 0; i < len(draw.Assignments); i++ {
			if _, err := br.Exec(); err != nil {
				return r.handleError(err)
			}
		}
		return nil
	})
}

func (r *repositoryImpl) ClearDraw(ctx context.Context, groupName string) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		q := `UPDATE groups SET draw_id = NULL, drawn_at = NULL, attempts = 0 WHERE name = $1`
		cmdTag, err := r.getQuerier(ctx).Exec(ctx, q, groupName)
		if err != nil {
			return r.handleError(err)
		}
		if cmdTag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		_, err = r.getQuerier(ctx).Exec(ctx, `DELETE FROM assignments WHERE group_name = $1`, groupName)
		return r.handleError(err)
	})
}

func (r *repositoryImpl) GetAssignment(ctx context.Context, groupName, giver string) (domain.Assignment, error) {
	q := `SELECT giver, receiver FROM assignments WHERE group_name = $1 AND giver = $2`
	var a domain.Assignment
	err := r.getQuerier(ctx).QueryRow(ctx, q, groupName, giver).Scan(&a.Giver, &a.Receiver)
	return a, r.handleError(err)
}

func (r *repositoryImpl) ListAssignments(ctx context.Context, groupName string) ([]domain.Assignment, error) {
	q := `
		SELECT a.giver, a.receiver
		FROM assignments a
		JOIN participants p ON p.group_name = a.group_name AND p.name = a.giver
		WHERE a.group_name = $1
		ORDER BY p.id
	`
	rows, err := r.getQuerier(ctx).Query(ctx, q, groupName)
	if err != nil {
		return nil, r.handleError(err)
	}
	defer rows.Close()

	assignments := make([]domain.Assignment, 0)
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.Giver, &a.Receiver); err != nil {
			return nil, r.handleError(err)
		}
		assignments = append(assignments, a)
	}
	return assignments, r.handleError(rows.Err())
}
