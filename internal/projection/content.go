package projection

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// ContentBuilder projects content items.
type ContentBuilder struct {
	published bool
	users     *userNames
}

// NewPublishedContentBuilder returns a builder that only emits published
// names, cultures and property values.
func NewPublishedContentBuilder(users driven.UserLookup) *ContentBuilder {
	return &ContentBuilder{published: true, users: newUserNames(users)}
}

// NewDraftContentBuilder returns a builder that emits the current state.
func NewDraftContentBuilder(users driven.UserLookup) *ContentBuilder {
	return &ContentBuilder{users: newUserNames(users)}
}

// Build projects one content item into a single value set.
func (b *ContentBuilder) Build(ctx context.Context, e *domain.Entity) ([]domain.ValueSet, error) {
	if err := checkEntity(e, domain.CategoryContent); err != nil {
		return nil, err
	}

	vs := domain.NewValueSet(e.IDString(), domain.CategoryContent, e.TypeAlias)
	f := vs.Fields
	setCommon(f, e)
	f.Set(domain.FieldWriterID, e.WriterID)

	f.Set(domain.FieldNodeName, e.Name)
	f.Set(domain.FieldURLName, URLSegment(e.Name))
	f.Set(domain.FieldPublished, domain.BoolToken(e.Published))
	f.Set(domain.FieldVariesByCulture, domain.BoolToken(e.VariesByCulture))

	if err := setUserName(ctx, f, b.users, domain.FieldCreatorName, e.CreatorID); err != nil {
		return nil, err
	}
	if err := setUserName(ctx, f, b.users, domain.FieldWriterName, e.WriterID); err != nil {
		return nil, err
	}

	if e.VariesByCulture {
		b.setVariants(f, e)
	}

	props := e.Properties
	if b.published {
		props = publishedProperties(e)
	}
	setProperties(f, props, b.published)

	return []domain.ValueSet{vs}, nil
}

func (b *ContentBuilder) setVariants(f *domain.FieldSet, e *domain.Entity) {
	for _, v := range e.Variants {
		if b.published && !v.Published {
			continue
		}
		name := v.Name
		if b.published {
			name = v.PublishedName
			if name == "" {
				name = v.Name
			}
		}
		f.Set(domain.CultureField(domain.FieldNodeName, v.Culture), name)
		f.Set(domain.CultureField(domain.FieldURLName, v.Culture), URLSegment(name))
		f.Set(domain.CultureField(domain.FieldPublished, v.Culture), domain.BoolToken(v.Published))
	}
}

// publishedProperties drops values of cultures that are not published.
func publishedProperties(e *domain.Entity) []domain.Property {
	if !e.VariesByCulture {
		return e.Properties
	}
	out := make([]domain.Property, 0, len(e.Properties))
	for _, p := range e.Properties {
		if p.Culture != "" {
			if v, ok := e.Variant(p.Culture); !ok || !v.Published {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
