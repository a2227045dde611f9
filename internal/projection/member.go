package projection

import (
	"context"
	"strconv"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// MemberBuilder projects members.
type MemberBuilder struct{}

// NewMemberBuilder creates a member builder.
func NewMemberBuilder() *MemberBuilder {
	return &MemberBuilder{}
}

// Build projects one member into a single value set.
func (b *MemberBuilder) Build(_ context.Context, e *domain.Entity) ([]domain.ValueSet, error) {
	if err := checkEntity(e, domain.CategoryMember); err != nil {
		return nil, err
	}

	vs := domain.NewValueSet(e.IDString(), domain.CategoryMember, e.TypeAlias)
	f := vs.Fields
	f.Set(domain.FieldID, e.ID)
	f.Set(domain.FieldKey, e.Key)
	f.Set(domain.FieldNodeName, e.Name)
	f.Set(domain.FieldLoginName, e.LoginName)
	f.Set(domain.FieldEmail, e.Email)
	f.Set(domain.FieldNodeType, strconv.FormatInt(e.TypeID, 10))
	f.Set(domain.FieldPath, domain.RootID+","+e.IDString())
	f.Set(domain.FieldCreateDate, e.CreatedAt)
	f.Set(domain.FieldUpdateDate, e.UpdatedAt)
	setProperties(f, e.Properties, false)

	return []domain.ValueSet{vs}, nil
}
