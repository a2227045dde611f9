package projection

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gosimple/slug"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Builder projects an entity into value sets.
type Builder interface {
	Build(ctx context.Context, entity *domain.Entity) ([]domain.ValueSet, error)
}

// userNames resolves and caches user names for one builder.
type userNames struct {
	lookup driven.UserLookup
	cache  map[int64]string
}

func newUserNames(lookup driven.UserLookup) *userNames {
	return &userNames{lookup: lookup, cache: make(map[int64]string)}
}

// name returns the user's name. Unknown users resolve to "" so the field
// is simply omitted.
func (u *userNames) name(ctx context.Context, id int64) (string, error) {
	if u.lookup == nil {
		return "", nil
	}
	if n, ok := u.cache[id]; ok {
		return n, nil
	}
	user, err := u.lookup.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.cache[id] = ""
			return "", nil
		}
		return "", fmt.Errorf("lookup user %d: %w", id, err)
	}
	u.cache[id] = user.Name
	return user.Name, nil
}

func checkEntity(entity *domain.Entity, category domain.Category) error {
	if entity == nil {
		return fmt.Errorf("%w: nil entity", domain.ErrInvalidInput)
	}
	if entity.Category != category {
		return fmt.Errorf("%w: entity %d is %s, want %s", domain.ErrInvalidInput, entity.ID, entity.Category, category)
	}
	if category.IsTree() && entity.Path == "" {
		return fmt.Errorf("%w: entity %d has no path", domain.ErrInvalidInput, entity.ID)
	}
	return nil
}

// setCommon writes the fields shared by content and media.
func setCommon(fields *domain.FieldSet, e *domain.Entity) {
	fields.Set(domain.FieldID, e.ID)
	fields.Set(domain.FieldKey, e.Key)
	fields.Set(domain.FieldParentID, e.ParentID)
	fields.Set(domain.FieldLevel, e.Level)
	fields.Set(domain.FieldCreatorID, e.CreatorID)
	fields.Set(domain.FieldSortOrder, e.SortOrder)
	fields.Set(domain.FieldCreateDate, e.CreatedAt)
	fields.Set(domain.FieldUpdateDate, e.UpdatedAt)
	fields.Set(domain.FieldPath, e.Path)
	fields.Set(domain.FieldNodeType, strconv.FormatInt(e.TypeID, 10))
}

func setUserName(ctx context.Context, fields *domain.FieldSet, users *userNames, field string, id int64) error {
	if id == 0 {
		return nil
	}
	name, err := users.name(ctx, id)
	if err != nil {
		return err
	}
	if name != "" {
		fields.Set(field, name)
	}
	return nil
}

// setProperties writes property values. Invariant values use the alias,
// culture values alias_<culture>. nil values are skipped.
func setProperties(fields *domain.FieldSet, props []domain.Property, published bool) {
	for _, p := range props {
		v := p.Value
		if published {
			v = p.PublishedValue
		}
		if v == nil {
			continue
		}
		name := p.Alias
		if p.Culture != "" {
			name = domain.CultureField(p.Alias, p.Culture)
		}
		fields.Set(name, v)
	}
}

// URLSegment renders a name as a lower-case, dash-separated url segment,
// transliterated to ASCII.
func URLSegment(name string) string {
	return slug.Make(name)
}
