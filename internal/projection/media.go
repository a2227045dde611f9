package projection

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// MediaBuilder projects media items.
type MediaBuilder struct {
	users *userNames
}

// NewMediaBuilder creates a media builder.
func NewMediaBuilder(users driven.UserLookup) *MediaBuilder {
	return &MediaBuilder{users: newUserNames(users)}
}

// Build projects one media item into a single value set.
func (b *MediaBuilder) Build(ctx context.Context, e *domain.Entity) ([]domain.ValueSet, error) {
	if err := checkEntity(e, domain.CategoryMedia); err != nil {
		return nil, err
	}

	vs := domain.NewValueSet(e.IDString(), domain.CategoryMedia, e.TypeAlias)
	f := vs.Fields
	setCommon(f, e)
	f.Set(domain.FieldNodeName, e.Name)
	f.Set(domain.FieldURLName, URLSegment(e.Name))

	if err := setUserName(ctx, f, b.users, domain.FieldCreatorName, e.CreatorID); err != nil {
		return nil, err
	}
	setProperties(f, e.Properties, false)

	return []domain.ValueSet{vs}, nil
}
