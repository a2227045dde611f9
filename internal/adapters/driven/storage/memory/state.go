package memory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// state is the content of the store. Entities share one id space across
// categories, so an id is unique within the whole store.
type state struct {
	entities   map[int64]*domain.Entity
	protection map[int64]domain.ProtectionEntry
	users      map[int64]domain.User
}

func newState() *state {
	return &state{
		entities:   make(map[int64]*domain.Entity),
		protection: make(map[int64]domain.ProtectionEntry),
		users:      make(map[int64]domain.User),
	}
}

func (s *state) clone() *state {
	out := newState()
	for id, e := range s.entities {
		out.entities[id] = e.Clone()
	}
	for id, p := range s.protection {
		out.protection[id] = p
	}
	for id, u := range s.users {
		out.users[id] = u
	}
	return out
}

func (s *state) get(category domain.Category, id int64) (*domain.Entity, error) {
	e, ok := s.entities[id]
	if !ok || e.Category != category {
		return nil, fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
	}
	return e.Clone(), nil
}

// save stores a copy of entity, deriving its path, level and trashed
// state. Moving a node rewrites the paths of its descendants.
func (s *state) save(entity *domain.Entity) error {
	if entity.ID <= 0 {
		return fmt.Errorf("%w: entity id must be positive", domain.ErrInvalidInput)
	}
	if !entity.Category.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, entity.Category)
	}
	if existing, ok := s.entities[entity.ID]; ok && existing.Category != entity.Category {
		return fmt.Errorf("%w: id %d is a %s", domain.ErrInvalidInput, entity.ID, existing.Category)
	}

	e := entity.Clone()
	id := e.IDString()

	switch {
	case !e.Category.IsTree():
		e.ParentID = -1
		e.Path = domain.RootID + "," + id
		e.Level = 1
	case e.ParentID == 0 || e.ParentID == -1:
		e.ParentID = -1
		e.Path = domain.RootID + "," + id
		e.Level = 1
	case strconv.FormatInt(e.ParentID, 10) == e.Category.RecycleBinID():
		e.Path = domain.RootID + "," + e.Category.RecycleBinID() + "," + id
		e.Level = 1
	default:
		parent, ok := s.entities[e.ParentID]
		if !ok || parent.Category != e.Category {
			return fmt.Errorf("parent %d: %w", e.ParentID, domain.ErrNotFound)
		}
		if domain.PathContains(parent.Path, id) {
			return fmt.Errorf("%w: cannot move %d below itself", domain.ErrInvalidInput, e.ID)
		}
		e.Path = parent.Path + "," + id
		e.Level = parent.Level + 1
	}
	if e.Category.IsTree() {
		e.Trashed = domain.PathContains(e.Path, e.Category.RecycleBinID())
	}

	now := time.Now().UTC()
	if old, ok := s.entities[e.ID]; ok {
		e.CreatedAt = old.CreatedAt
		if old.Path != e.Path {
			s.movePaths(old, e)
		}
	} else if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	s.entities[e.ID] = e
	return nil
}

func (s *state) movePaths(old, moved *domain.Entity) {
	prefix := old.Path + ","
	delta := moved.Level - old.Level
	for _, d := range s.entities {
		if d.Category != old.Category || !strings.HasPrefix(d.Path, prefix) {
			continue
		}
		d.Path = moved.Path + "," + strings.TrimPrefix(d.Path, prefix)
		d.Level += delta
		d.Trashed = domain.PathContains(d.Path, d.Category.RecycleBinID())
	}
}

// remove deletes an entity and, for tree categories, its descendants.
func (s *state) remove(category domain.Category, id int64) error {
	e, ok := s.entities[id]
	if !ok || e.Category != category {
		return fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
	}
	delete(s.entities, id)
	if category.IsTree() {
		prefix := e.Path + ","
		for did, d := range s.entities {
			if d.Category == category && strings.HasPrefix(d.Path, prefix) {
				delete(s.entities, did)
			}
		}
	}
	delete(s.protection, id)
	return nil
}

func (s *state) paged(keep func(*domain.Entity) bool, page, size int) ([]*domain.Entity, int) {
	var matches []*domain.Entity
	for _, e := range s.entities {
		if keep(e) {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)
	if size < 1 || page < 0 {
		return nil, total
	}
	start := page * size
	if start >= total {
		return nil, total
	}
	end := min(start+size, total)

	out := make([]*domain.Entity, 0, end-start)
	for _, e := range matches[start:end] {
		out = append(out, e.Clone())
	}
	return out, total
}

func (s *state) descendants(category domain.Category, id int64, page, size int) ([]*domain.Entity, int, error) {
	root, ok := s.entities[id]
	if !ok || root.Category != category {
		return nil, 0, fmt.Errorf("%s %d: %w", category, id, domain.ErrNotFound)
	}
	prefix := root.Path + ","
	items, total := s.paged(func(e *domain.Entity) bool {
		return e.Category == category && strings.HasPrefix(e.Path, prefix)
	}, page, size)
	return items, total, nil
}

func (s *state) ofTypes(category domain.Category, typeIDs []int64, page, size int) ([]*domain.Entity, int) {
	types := make(map[int64]bool, len(typeIDs))
	for _, t := range typeIDs {
		types[t] = true
	}
	return s.paged(func(e *domain.Entity) bool {
		return e.Category == category && types[e.TypeID]
	}, page, size)
}

func (s *state) all(category domain.Category, page, size int) ([]*domain.Entity, int) {
	return s.paged(func(e *domain.Entity) bool { return e.Category == category }, page, size)
}

// isPathPublished walks the ancestors of entity, excluding itself.
func (s *state) isPathPublished(entity *domain.Entity) bool {
	if entity.Category.IsTree() && domain.PathContains(entity.Path, entity.Category.RecycleBinID()) {
		return false
	}
	self := entity.IDString()
	for _, p := range entity.PathIDs() {
		if p == domain.RootID || p == self {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return false
		}
		a, ok := s.entities[id]
		if !ok || !a.Published || a.Trashed {
			return false
		}
	}
	return true
}

// isProtected returns the rule of the deepest protected node on path.
func (s *state) isProtected(path string) (*domain.ProtectionEntry, bool) {
	ids := domain.SplitPath(path)
	for i := len(ids) - 1; i >= 0; i-- {
		id, err := strconv.ParseInt(ids[i], 10, 64)
		if err != nil {
			continue
		}
		if entry, ok := s.protection[id]; ok {
			return &entry, true
		}
	}
	return nil, false
}

func (s *state) getUser(id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}
