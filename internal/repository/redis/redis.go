// Package redis stores groups in Redis.
//
// Keys per group:
//
//	santa:group:<name>               hash   created_at, draw_id, drawn_at, attempts
//	santa:group:<name>:participants  zset   name scored by registration sequence
//	santa:group:<name>:assignments   hash   giver -> receiver
//	santa:seq                        string registration sequence
//
// RunInTx holds a single writer lock (santa:lock). Writes made inside it
// are applied immediately and are not rolled back when fn fails; every
// multi-key write is itself one MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"secretsanta/internal/domain"
	"secretsanta/internal/repository"
)

const (
	keyPrefix = "santa:group:"
	seqKey    = "santa:seq"
	lockKey   = "santa:lock"

	lockTTL   = 30 * time.Second
	lockRetry = 20 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type lockKeyCtx struct{}

type repositoryImpl struct {
	rdb *redis.Client
}

func New(ctx context.Context, url string) (repository.Repository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &repositoryImpl{rdb: rdb}, nil
}

func (r *repositoryImpl) Close() { _ = r.rdb.Close() }

func (r *repositoryImpl) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func groupKey(name string) string        { return keyPrefix + name }
func participantsKey(name string) string { return keyPrefix + name + ":participants" }
func assignmentsKey(name string) string  { return keyPrefix + name + ":assignments" }

func (r *repositoryImpl) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(lockKeyCtx{}).(string); ok {
		return fn(ctx)
	}

	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetry):
		}
	}
	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), r.rdb, []string{lockKey}, token).Err()
	}()

	return fn(context.WithValue(ctx, lockKeyCtx{}, token))
}

func (r *repositoryImpl) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	now := time.Now().UTC()
	created, err := r.rdb.HSetNX(ctx, groupKey(name), "created_at", now.Format(time.RFC3339Nano)).Result()
	if err != nil {
		return domain.Group{}, err
	}
	if !created {
		return domain.Group{}, domain.ErrConflict
	}
	return domain.Group{Name: name, CreatedAt: now}, nil
}

func (r *repositoryImpl) GetGroup(ctx context.Context, name string) (domain.Group, error) {
	fields, err := r.rdb.HGetAll(ctx, groupKey(name)).Result()
	if err != nil {
		return domain.Group{}, err
	}
	if len(fields) == 0 {
		return domain.Group{}, domain.ErrNotFound
	}
	return parseGroup(name, fields)
}

// LockGroup is GetGroup: callers already hold the writer lock.
func (r *repositoryImpl) LockGroup(ctx context.Context, name string) (domain.Group, error) {
	return r.GetGroup(ctx, name)
}

func parseGroup(name string, fields map[string]string) (domain.Group, error) {
	g := domain.Group{Name: name, DrawID: fields["draw_id"]}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return domain.Group{}, fmt.Errorf("parse created_at of %q: %w", name, err)
	}
	g.CreatedAt = createdAt

	if v := fields["drawn_at"]; v != "" {
		drawnAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return domain.Group{}, fmt.Errorf("parse drawn_at of %q: %w", name, err)
		}
		g.DrawnAt = &drawnAt
	}
	if v := fields["attempts"]; v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			return domain.Group{}, fmt.Errorf("parse attempts of %q: %w", name, err)
		}
		g.Attempts = attempts
	}
	return g, nil
}

func (r *repositoryImpl) DeleteGroup(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, groupKey(name))
		pipe.Del(ctx, participantsKey(name), assignmentsKey(name))
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) requireGroup(ctx context.Context, name string) error {
	n, err := r.rdb.Exists(ctx, groupKey(name)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) AddParticipant(ctx context.Context, groupName, name string) (domain.Participant, error) {
	if err := r.requireGroup(ctx, groupName); err != nil {
		return domain.Participant{}, err
	}
	seq, err := r.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return domain.Participant{}, err
	}
	added, err := r.rdb.ZAddNX(ctx, participantsKey(groupName), redis.Z{Score: float64(seq), Member: name}).Result()
	if err != nil {
		return domain.Participant{}, err
	}
	if added == 0 {
		return domain.Participant{}, domain.ErrConflict
	}
	return domain.Participant{Name: name, GroupName: groupName}, nil
}

func (r *repositoryImpl) ListParticipants(ctx context.Context, groupName string) ([]domain.Participant, error) {
	if err := r.requireGroup(ctx, groupName); err != nil {
		return nil, err
	}
	names, err := r.rdb.ZRange(ctx, participantsKey(groupName), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	participants := make([]domain.Participant, len(names))
	for i, n := range names {
		participants[i] = domain.Participant{Name: n, GroupName: groupName}
	}
	return participants, nil
}

func (r *repositoryImpl) RemoveParticipant(ctx context.Context, groupName, name string) error {
	if err := r.requireGroup(ctx, groupName); err != nil {
		return err
	}
	var removed *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, participantsKey(groupName), name)
		pipe.HDel(ctx, assignmentsKey(groupName), name)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) SaveDraw(ctx context.Context, draw domain.Draw) error {
	if err := r.requireGroup(ctx, draw.GroupName); err != nil {
		return err
	}
	results := make(map[string]any, len(draw.Assignments))
	for _, a := range draw.Assignments {
		results[a.Giver] = a.Receiver
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, assignmentsKey(draw.GroupName))
		if len(results) > 0 {
			pipe.HSet(ctx, assignmentsKey(draw.GroupName), results)
		}
		pipe.HSet(ctx, groupKey(draw.GroupName), map[string]any{
			"draw_id":  draw.ID,
			"drawn_at": draw.DrawnAt.UTC().Format(time.RFC3339Nano),
			"attempts": draw.Attempts,
		})
		return nil
	})
	return err
}

func (r *repositoryImpl) ClearDraw(ctx context.Context, groupName string) error {
	if err := r.requireGroup(ctx, groupName); err != nil {
		return err
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, assignmentsKey(groupName))
		pipe.HDel(ctx, groupKey(groupName), "draw_id", "drawn_at", "attempts")
		return nil
	})
	return err
}

func (r *repositoryImpl) GetAssignment(ctx context.Context, groupName, giver string) (domain.Assignment, error) {
	receiver, err := r.rdb.HGet(ctx, assignmentsKey(groupName), giver).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Assignment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Assignment{}, err
	}
	return domain.Assignment{Giver: giver, Receiver: receiver}, nil
}

func (r *repositoryImpl) ListAssignments(ctx context.Context, groupName string) ([]domain.Assignment, error) {
	participants, err := r.ListParticipants(ctx, groupName)
	if err != nil {
		return nil, err
	}
	results, err := r.rdb.HGetAll(ctx, assignmentsKey(groupName)).Result()
	if err != nil {
		return nil, err
	}
	assignments := make([]domain.Assignment, 0, len(results))
	for _, p := range participants {
		if receiver, ok := results[p.Name]; ok {
			assignments = append(assignments, domain.Assignment{Giver: p.Name, Receiver: receiver})
		}
	}
	return assignments, nil
}
