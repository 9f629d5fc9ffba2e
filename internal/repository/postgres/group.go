package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"secretsanta/internal/domain"
)

const groupColumns = `name, created_at, COALESCE(draw_id::text, ''), drawn_at, attempts`

func scanGroup(row pgx.Row) (domain.Group, error) {
	var g domain.Group
	err := row.Scan(&g.Name, &g.CreatedAt, &g.DrawID, &g.DrawnAt, &g.Attempts)
	return g, err
}

func (r *repositoryImpl) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	q := `INSERT INTO groups (name) VALUES ($1) RETURNING ` + groupColumns
	g, err := scanGroup(r.getQuerier(ctx).QueryRow(ctx, q, name))
	return g, r.handleError(err)
}

func (r *repositoryImpl) GetGroup(ctx context.Context, name string) (domain.Group, error) {
	return r.getGroupInternal(ctx, name, false)
}

func (r *repositoryImpl) LockGroup(ctx context.Context, name string) (domain.Group, error) {
	return r.getGroupInternal(ctx, name, true)
}

func (r *repositoryImpl) getGroupInternal(ctx context.Context, name string, forUpdate bool) (domain.Group, error) {
	q := `SELECT ` + groupColumns + ` FROM groups WHERE name = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	g, err := scanGroup(r.getQuerier(ctx).QueryRow(ctx, q, name))
	if err != nil {
		return domain.Group{}, r.handleError(err)
	}
	return g, nil
}

func (r *repositoryImpl) DeleteGroup(ctx context.Context, name string) error {
	cmdTag, err := r.getQuerier(ctx).Exec(ctx, `DELETE FROM groups WHERE name = $1`, name)
	if err != nil {
		return r.handleError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
