// Package file keeps every group in a single JSON document on disk.
//
// The whole document is held in memory. Writers work on a copy and the
// copy replaces the file (temp file + rename) only when the write succeeds,
// so a failed operation never leaves a partial state behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"secretsanta/internal/domain"
	"secretsanta/internal/repository"
)

type document struct {
	Groups map[string]*groupRecord `json:"groups"`
}

type groupRecord struct {
	CreatedAt    time.Time         `json:"created_at"`
	Participants []string          `json:"participants"`
	Results      map[string]string `json:"results"`
	IsDrawn      bool              `json:"isDrawn"`
	DrawID       string            `json:"draw_id,omitempty"`
	DrawnAt      *time.Time        `json:"drawn_at,omitempty"`
	Attempts     int               `json:"attempts,omitempty"`
}

func (d *document) clone() *document {
	out := &document{Groups: make(map[string]*groupRecord, len(d.Groups))}
	for name, g := range d.Groups {
		c := *g
		c.Participants = slices.Clone(g.Participants)
		c.Results = maps.Clone(g.Results)
		out.Groups[name] = &c
	}
	return out
}

type txKey struct{}

type repositoryImpl struct {
	path string
	mu   sync.Mutex
	doc  *document
}

// New opens the document at path, creating an empty one if it does not exist.
func New(path string) (repository.Repository, error) {
	r := &repositoryImpl{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.doc = &document{Groups: map[string]*groupRecord{}}
		if err := r.persist(r.doc); err != nil {
			return nil, err
		}
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode data file: %w", err)
	}
	if doc.Groups == nil {
		doc.Groups = map[string]*groupRecord{}
	}
	r.doc = &doc
	return r, nil
}

// Ping checks that the data file is still in place.
func (r *repositoryImpl) Ping(context.Context) error {
	_, err := os.Stat(r.path)
	return err
}

func (r *repositoryImpl) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*document); ok {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.clone()
	if err := fn(context.WithValue(ctx, txKey{}, next)); err != nil {
		return err
	}
	if err := r.persist(next); err != nil {
		return err
	}
	r.doc = next
	return nil
}

func (r *repositoryImpl) update(ctx context.Context, fn func(doc *document) error) error {
	return r.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*document))
	})
}

func (r *repositoryImpl) view(ctx context.Context, fn func(doc *document) error) error {
	if doc, ok := ctx.Value(txKey{}).(*document); ok {
		return fn(doc)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.doc)
}

func (r *repositoryImpl) persist(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func lookup(doc *document, name string) (*groupRecord, error) {
	g, ok := doc.Groups[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func toGroup(name string, g *groupRecord) domain.Group {
	return domain.Group{
		Name:      name,
		CreatedAt: g.CreatedAt,
		DrawID:    g.DrawID,
		DrawnAt:   g.DrawnAt,
		Attempts:  g.Attempts,
	}
}

func (r *repositoryImpl) CreateGroup(ctx context.Context, name string) (domain.Group, error) {
	var out domain.Group
	err := r.update(ctx, func(doc *document) error {
		if _, ok := doc.Groups[name]; ok {
			return domain.ErrConflict
		}
		g := &groupRecord{
			CreatedAt:    time.Now().UTC(),
			Participants: []string{},
			Results:      map[string]string{},
		}
		doc.Groups[name] = g
		out = toGroup(name, g)
		return nil
	})
	return out, err
}

func (r *repositoryImpl) GetGroup(ctx context.Context, name string) (domain.Group, error) {
	var out domain.Group
	err := r.view(ctx, func(doc *document) error {
		g, err := lookup(doc, name)
		if err != nil {
			return err
		}
		out = toGroup(name, g)
		return nil
	})
	return out, err
}

// LockGroup is GetGroup: the document lock held by RunInTx already
// serializes writers.
func (r *repositoryImpl) LockGroup(ctx context.Context, name string) (domain.Group, error) {
	return r.GetGroup(ctx, name)
}

func (r *repositoryImpl) DeleteGroup(ctx context.Context, name string) error {
	return r.update(ctx, func(doc *document) error {
		if _, err := lookup(doc, name); err != nil {
			return err
		}
		delete(doc.Groups, name)
		return nil
	})
}

func (r *repositoryImpl) AddParticipant(ctx context.Context, groupName, name string) (domain.Participant, error) {
	err := r.update(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		if slices.Contains(g.Participants, name) {
			return domain.ErrConflict
		}
		g.Participants = append(g.Participants, name)
		return nil
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant{Name: name, GroupName: groupName}, nil
}

func (r *repositoryImpl) ListParticipants(ctx context.Context, groupName string) ([]domain.Participant, error) {
	var out []domain.Participant
	err := r.view(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		out = make([]domain.Participant, len(g.Participants))
		for i, p := range g.Participants {
			out[i] = domain.Participant{Name: p, GroupName: groupName}
		}
		return nil
	})
	return out, err
}

func (r *repositoryImpl) RemoveParticipant(ctx context.Context, groupName, name string) error {
	return r.update(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		i := slices.Index(g.Participants, name)
		if i < 0 {
			return domain.ErrNotFound
		}
		g.Participants = slices.Delete(g.Participants, i, i+1)
		maps.DeleteFunc(g.Results, func(giver, receiver string) bool {
			return giver == name || receiver == name
		})
		return nil
	})
}

func (r *repositoryImpl) SaveDraw(ctx context.Context, draw domain.Draw) error {
	return r.update(ctx, func(doc *document) error {
		g, err := lookup(doc, draw.GroupName)
		if err != nil {
			return err
		}
		results := make(map[string]string, len(draw.Assignments))
		for _, a := range draw.Assignments {
			results[a.Giver] = a.Receiver
		}
		drawnAt := draw.DrawnAt
		g.Results = results
		g.IsDrawn = true
		g.DrawID = draw.ID
		g.DrawnAt = &drawnAt
		g.Attempts = draw.Attempts
		return nil
	})
}

func (r *repositoryImpl) ClearDraw(ctx context.Context, groupName string) error {
	return r.update(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		g.Results = map[string]string{}
		g.IsDrawn = false
		g.DrawID = ""
		g.DrawnAt = nil
		g.Attempts = 0
		return nil
	})
}

func (r *repositoryImpl) GetAssignment(ctx context.Context, groupName, giver string) (domain.Assignment, error) {
	var out domain.Assignment
	err := r.view(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		receiver, ok := g.Results[giver]
		if !ok {
			return domain.ErrNotFound
		}
		out = domain.Assignment{Giver: giver, Receiver: receiver}
		return nil
	})
	return out, err
}

func (r *repositoryImpl) ListAssignments(ctx context.Context, groupName string) ([]domain.Assignment, error) {
	var out []domain.Assignment
	err := r.view(ctx, func(doc *document) error {
		g, err := lookup(doc, groupName)
		if err != nil {
			return err
		}
		out = make([]domain.Assignment, 0, len(g.Results))
		for _, p := range g.Participants {
			if receiver, ok := g.Results[p]; ok {
				out = append(out, domain.Assignment{Giver: p, Receiver: receiver})
			}
		}
		return nil
	})
	return out, err
}
